package catalog

// Hardcoded fallback sets. A failed lookup for these catalogs degrades to
// the defaults instead of blocking the wizard.

func DefaultPaymentTypes() []PaymentType {
	return []PaymentType{
		{ID: 1, Name: "Cash"},
		{ID: 2, Name: "Card"},
		{ID: 3, Name: "Bank Transfer"},
	}
}

func DefaultDurations() []DurationOption {
	return []DurationOption{
		{ID: 1, Days: 7, Name: "1 Week"},
		{ID: 2, Days: 14, Name: "2 Weeks"},
		{ID: 3, Days: 30, Name: "1 Month"},
		{ID: 4, Days: 90, Name: "3 Months"},
	}
}

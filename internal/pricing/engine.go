// Package pricing computes the priced breakdown shown on the billing step
// and carried into the submission invoice. Price is a pure function; it is
// recomputed on every input change, so it must never perform I/O.
package pricing

// Tax describes the tax mode configured for the business.
type Tax struct {
	Active                 bool    `json:"active"`
	IncludedInPrice        bool    `json:"includedInPrice"`
	Percent                float64 `json:"percent"`
	RecomputeAfterDiscount bool    `json:"recomputeAfterDiscount"`
}

// Breakdown is the derived pricing result. It is never persisted; only the
// final Total is carried into the draft for submission.
type Breakdown struct {
	PlanPrice      float64 `json:"planPrice"`
	BagValue       float64 `json:"bagValue"`
	DiscountAmount float64 `json:"discountAmount"`
	TaxAmount      float64 `json:"taxAmount"`
	NetAmount      float64 `json:"netAmount"`
	Total          float64 `json:"total"`
}

// Price computes the breakdown for the given plan price, tax settings, and
// discounts. Discounts never drive the net below zero; a zero plan price
// yields an all-zero breakdown so the caller can render a "no plan" state.
func Price(planPrice float64, tax Tax, manualDiscount, couponDiscount, bagValue float64) Breakdown {
	if planPrice == 0 {
		return Breakdown{}
	}

	totalDiscount := manualDiscount + couponDiscount

	var net, taxAmount float64
	if tax.IncludedInPrice {
		// The displayed price already contains tax; back it out first.
		taxAmount = planPrice * tax.Percent / (1 + tax.Percent)
		net = planPrice - taxAmount
		applied := totalDiscount
		if applied > net {
			applied = net
		}
		net -= applied
		if tax.RecomputeAfterDiscount {
			taxAmount = net * tax.Percent
		}
		return Breakdown{
			PlanPrice:      planPrice,
			BagValue:       bagValue,
			DiscountAmount: applied,
			TaxAmount:      taxAmount,
			NetAmount:      net,
			Total:          net + taxAmount + bagValue,
		}
	}

	applied := totalDiscount
	if applied > planPrice {
		applied = planPrice
	}
	net = planPrice - applied
	if tax.Active {
		taxAmount = net * tax.Percent
	}
	return Breakdown{
		PlanPrice:      planPrice,
		BagValue:       bagValue,
		DiscountAmount: applied,
		TaxAmount:      taxAmount,
		NetAmount:      net,
		Total:          net + taxAmount + bagValue,
	}
}

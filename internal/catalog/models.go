package catalog

import (
	"encoding/json"

	"mealsub-admin/internal/schedule"
)

// ==========================
// Catalog Descriptors
// ==========================

type PlanCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Plan struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	BagValue   float64 `json:"bagValue"`
	CategoryID int64   `json:"categoryId"`
}

type DurationOption struct {
	ID   int64  `json:"id"`
	Days int    `json:"days"`
	Name string `json:"name"`
}

type MealType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type DeliveryDay struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DislikeCategory tolerates the backend's two spellings of the name key
// ("dislikeCategoryName" and the typoed "disLikeCategoryName") and maps
// both onto Name.
type DislikeCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (d *DislikeCategory) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Long  string `json:"dislikeCategoryName"`
		Typo  string `json:"disLikeCategoryName"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.ID = raw.ID
	d.Name = raw.Name
	if d.Name == "" {
		d.Name = raw.Long
	}
	if d.Name == "" {
		d.Name = raw.Typo
	}
	return nil
}

type Branch struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PaymentType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ==========================
// Lookup Results
// ==========================

// CouponResult is the outcome of validating a coupon code against a plan.
// DiscountID is the server-assigned id that must be echoed back in the
// final invoice's paymentDiscounts entry.
type CouponResult struct {
	DiscountID int64   `json:"discountId"`
	Amount     float64 `json:"amount"`
}

// CustomerInfo carries the delivery routing ids needed at submission time.
// The backend sends the address under either "address" or the legacy
// misspelled "adress"; both map onto Address here so the rest of the code
// sees one shape.
type CustomerInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	DriverID int64  `json:"driverId"`
	BranchID int64  `json:"branchId"`
	AreaID   int64  `json:"areaId"`
}

func (c *CustomerInfo) UnmarshalJSON(data []byte) error {
	type plain CustomerInfo
	var raw struct {
		plain
		Misspelled string `json:"adress"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = CustomerInfo(raw.plain)
	if c.Address == "" {
		c.Address = raw.Misspelled
	}
	return nil
}

// TaxSettings mirrors the backend tax configuration. Zero value means tax
// disabled.
type TaxSettings struct {
	Active                 bool    `json:"active"`
	IncludedInPrice        bool    `json:"includedInPrice"`
	Percent                float64 `json:"percent"`
	RecomputeAfterDiscount bool    `json:"recomputeAfterDiscount"`
}

// ==========================
// Plan Generation
// ==========================

type GeneratePlanRequest struct {
	PlanID             int64   `json:"planId"`
	StartDate          string  `json:"startDate"`
	Duration           int     `json:"duration"`
	DeliveryDayIDs     []int64 `json:"deliveryDayIds"`
	MealTypeIDs        []int64 `json:"mealTypeIds"`
	DislikeCategoryIDs []int64 `json:"dislikeCategoryIds"`
}

type generatePlanResponse struct {
	Meals []schedule.ScheduledMeal `json:"meals"`
}

// ==========================
// Subscription Creation
// ==========================

type SubscriptionRequest struct {
	CustomerID        int64             `json:"customerId"`
	PlanID            int64             `json:"planId"`
	StartDate         string            `json:"startDate"`
	Duration          int               `json:"duration"`
	SubscriptionType  int               `json:"subscriptionType"`
	BranchID          *int64            `json:"branchId,omitempty"`
	DriverID          int64             `json:"driverId"`
	DeliveryBranchID  int64             `json:"deliveryBranchId"`
	AreaID            int64             `json:"areaId"`
	MealTypes         []MealType        `json:"mealTypes"`
	DeliveryDays      []DeliveryDay     `json:"deliveryDays"`
	DislikeCategories []DislikeCategory `json:"dislikeCategories"`
	Notes             string            `json:"notes"`
	Invoice           *Invoice          `json:"invoice"`
}

type Invoice struct {
	Total            float64           `json:"total"`
	Discount         float64           `json:"discount"`
	Net              float64           `json:"net"`
	Tax              float64           `json:"tax"`
	PaymentDiscounts []PaymentDiscount `json:"paymentDiscounts"`
	PaymentMethods   []PaymentMethod   `json:"paymentMethods"`
	UploadRequest    *UploadRequest    `json:"uploadRequest,omitempty"`
}

type PaymentDiscount struct {
	DiscountID int64   `json:"discountId"`
	Amount     float64 `json:"amount"`
}

type PaymentMethod struct {
	PaymentTypeID int64   `json:"paymentTypeId"`
	Amount        float64 `json:"amount"`
	Reference     string  `json:"reference"`
}

type UploadRequest struct {
	FileName string `json:"fileName"`
	Base64   string `json:"base64"`
}

// CreateResult is the backend acknowledgement of a created subscription.
type CreateResult struct {
	SubscriptionID int64 `json:"subscriptionId"`
}

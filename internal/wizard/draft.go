// Package wizard implements the subscription-creation wizard engine: the
// draft model, the reducer-style state store, the per-step validator, and
// the step-navigation controller.
package wizard

import (
	"encoding/json"

	"mealsub-admin/internal/schedule"
)

// SubscriptionType mirrors the backend enumeration.
type SubscriptionType int

const (
	SubscriptionWeb       SubscriptionType = 0
	SubscriptionMobileApp SubscriptionType = 1
	SubscriptionBranch    SubscriptionType = 2
)

// Ref is a catalog reference that may arrive as a bare identifier or as a
// previously-resolved descriptor. An empty Name means unresolved; the
// submission assembler resolves it against the catalog.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts either a bare number or a {id, name} object, since
// drafts persisted by older console builds stored bare ids.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		r.Name = ""
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

// UploadedFile is an invoice attachment collected on the billing step.
type UploadedFile struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Draft is the single source of truth for the in-progress subscription.
// The customer facet owns the plan and billing facets: selecting a
// different customer invalidates both together.
type Draft struct {
	// Customer facet
	CustomerID      *int64 `json:"customerId"`
	CustomerName    string `json:"customerName"`
	CustomerPhone   string `json:"customerPhone"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerAddress string `json:"customerAddress"`

	// Plan facet
	PlanCategoryID    *int64                  `json:"planCategoryId"`
	PlanID            *int64                  `json:"planId"`
	StartDate         string                  `json:"startDate"` // 2006-01-02
	Duration          int                     `json:"duration"`  // days, 1..365
	DeliveryDays      []Ref                   `json:"deliveryDays"`
	MealTypes         []Ref                   `json:"mealTypes"`
	DislikeCategories []Ref                   `json:"dislikeCategories"`
	SubscriptionType  *SubscriptionType       `json:"subscriptionType"`
	BranchID          *int64                  `json:"branchId"`
	GeneratedPlan     *schedule.GeneratedPlan `json:"generatedPlan,omitempty"`

	// Billing facet
	IsSponsor        bool           `json:"isSponsor"`
	ManualDiscount   float64        `json:"manualDiscount"`
	CouponCode       string         `json:"couponCode"`
	CouponDiscount   float64        `json:"couponDiscount"`
	CouponDiscountID *int64         `json:"couponDiscountId"`
	PaymentMethodID  *int64         `json:"paymentMethodId"`
	PaymentReference string         `json:"paymentReference"`
	UploadedFiles    []UploadedFile `json:"uploadedFiles,omitempty"`
	Notes            string         `json:"notes"`
	Total            float64        `json:"total"`

	// Review step
	TermsAccepted bool `json:"termsAccepted"`
}

// EmptyDraft returns the draft the wizard starts from.
func EmptyDraft() Draft {
	return Draft{}
}

// clearPlanFacet zeroes every plan field. Kept together with
// clearBillingFacet: the invariants never clear one without the other.
func (d *Draft) clearPlanFacet() {
	d.PlanCategoryID = nil
	d.PlanID = nil
	d.StartDate = ""
	d.Duration = 0
	d.DeliveryDays = nil
	d.MealTypes = nil
	d.DislikeCategories = nil
	d.SubscriptionType = nil
	d.BranchID = nil
	d.GeneratedPlan = nil
}

func (d *Draft) clearBillingFacet() {
	d.IsSponsor = false
	d.clearBillingFields()
	d.TermsAccepted = false
	d.Total = 0
}

// clearBillingFields zeroes the billing inputs that a sponsor subscription
// suppresses, leaving the sponsor flag itself alone.
func (d *Draft) clearBillingFields() {
	d.ManualDiscount = 0
	d.CouponCode = ""
	d.CouponDiscount = 0
	d.CouponDiscountID = nil
	d.PaymentMethodID = nil
	d.PaymentReference = ""
	d.UploadedFiles = nil
	d.Notes = ""
}

// HasMeaningfulData reports whether the draft is worth persisting. Empty
// drafts produced by the first render are never written.
func (d *Draft) HasMeaningfulData() bool {
	return d.CustomerID != nil ||
		d.CustomerPhone != "" ||
		d.PlanCategoryID != nil ||
		d.PlanID != nil ||
		d.StartDate != ""
}

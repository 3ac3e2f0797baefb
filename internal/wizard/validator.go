package wizard

import (
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrorMap carries field-level validation messages keyed by field name.
// An empty map means the step passes. These are rendered inline and block
// forward navigation only; they are never raised as errors.
type ErrorMap map[string]string

func (m ErrorMap) merge(other ErrorMap) {
	for k, v := range other {
		m[k] = v
	}
}

// Validate runs the rule set for the given step against the draft.
// Step 3 (preview) is read-only and always passes. Step 2 is validated by
// the plan step itself before it signals advance; the controller treats it
// as self-gated, but the rule set is still available here for that step's
// own use.
func Validate(step int, d *Draft) ErrorMap {
	switch step {
	case StepCustomer:
		return validateCustomer(d)
	case StepPlan:
		return validatePlan(d)
	case StepPreview:
		return ErrorMap{}
	case StepBilling:
		return validateBilling(d)
	case StepReview:
		return validateReview(d)
	}
	return ErrorMap{}
}

func validateCustomer(d *Draft) ErrorMap {
	errs := ErrorMap{}

	if d.CustomerID == nil && strings.TrimSpace(d.CustomerPhone) == "" {
		errs["customer"] = "select an existing customer or enter a phone number"
	}

	if err := validation.Validate(d.CustomerName,
		validation.Required.Error("customer name is required"),
	); err != nil {
		errs["customerName"] = err.Error()
	}

	if strings.TrimSpace(d.CustomerPhone) != "" && !hasValidPhoneSegment(d.CustomerPhone) {
		errs["customerPhone"] = "phone must contain a segment with 10 to 15 digits"
	}

	return errs
}

// hasValidPhoneSegment checks the semicolon/dash-separated segments of a
// phone field; at least one segment must hold 10 to 15 digits.
func hasValidPhoneSegment(phone string) bool {
	segments := strings.FieldsFunc(phone, func(r rune) bool {
		return r == ';' || r == '-'
	})
	for _, seg := range segments {
		digits := 0
		for _, r := range seg {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits >= 10 && digits <= 15 {
			return true
		}
	}
	return false
}

func validatePlan(d *Draft) ErrorMap {
	errs := ErrorMap{}

	err := validation.ValidateStruct(d,
		validation.Field(&d.PlanCategoryID, validation.Required.Error("plan category is required")),
		validation.Field(&d.PlanID, validation.Required.Error("plan is required")),
	)
	collectStructErrors(errs, err)

	if d.PlanID == nil {
		return errs
	}

	if d.StartDate == "" {
		errs["startDate"] = "start date is required"
	} else if t, perr := time.Parse("2006-01-02", d.StartDate); perr != nil {
		errs["startDate"] = "start date is not a valid date"
	} else if t.Before(today()) {
		errs["startDate"] = "start date cannot be in the past"
	}

	if verr := validation.Validate(d.Duration,
		validation.Required.Error("duration is required"),
		validation.Min(1).Error("duration must be at least 1 day"),
		validation.Max(365).Error("duration cannot exceed 365 days"),
	); verr != nil {
		errs["duration"] = verr.Error()
	}

	if len(d.MealTypes) == 0 {
		errs["mealTypes"] = "select at least one meal type"
	}
	if len(d.DeliveryDays) == 0 {
		errs["deliveryDays"] = "select at least one delivery day"
	}

	if d.SubscriptionType == nil {
		errs["subscriptionType"] = "subscription type is required"
	} else if *d.SubscriptionType == SubscriptionBranch && d.BranchID == nil {
		errs["branchId"] = "branch is required for branch subscriptions"
	}

	return errs
}

func validateBilling(d *Draft) ErrorMap {
	// Sponsor subscriptions waive the whole billing step, including the
	// invoice-file requirement.
	if d.IsSponsor {
		return ErrorMap{}
	}

	errs := ErrorMap{}

	err := validation.ValidateStruct(d,
		validation.Field(&d.PaymentMethodID, validation.Required.Error("payment method is required")),
	)
	collectStructErrors(errs, err)

	if len(d.UploadedFiles) == 0 {
		errs["invoiceFile"] = "an uploaded invoice file is required"
	}

	return errs
}

// validateReview re-runs the customer and billing rule sets as the final
// gate and additionally requires explicit terms acceptance.
func validateReview(d *Draft) ErrorMap {
	errs := validateCustomer(d)
	errs.merge(validateBilling(d))
	if !d.TermsAccepted {
		errs["terms"] = "terms must be accepted before submitting"
	}
	return errs
}

func collectStructErrors(errs ErrorMap, err error) {
	if err == nil {
		return
	}
	verrs, ok := err.(validation.Errors)
	if !ok {
		errs["_"] = err.Error()
		return
	}
	for field, ferr := range verrs {
		errs[field] = ferr.Error()
	}
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

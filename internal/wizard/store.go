package wizard

import (
	"sync"

	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/schedule"
)

// Saver is the persistence hook the store schedules writes through. The
// draft package provides the debounced Redis-backed implementation.
type Saver interface {
	// Schedule requests a debounced write of the draft.
	Schedule(d Draft)
	// SaveNow writes the draft immediately, bypassing the debounce window.
	SaveNow(d Draft)
	// Clear removes the persisted draft entirely.
	Clear()
}

// Action is one of the typed mutations accepted by Store.Dispatch.
type Action interface {
	actionName() string
}

// SetCustomer replaces the customer facet wholesale. Selecting a different
// customer than the one currently held clears the plan and billing facets
// together.
type SetCustomer struct {
	ID      *int64
	Name    string
	Phone   string
	Email   string
	Address string
}

// SetPlanFacet shallow-merges into the plan facet: nil fields are left
// untouched, non-nil fields replace the current value wholesale.
type SetPlanFacet struct {
	PlanCategoryID    *int64
	PlanID            *int64
	StartDate         *string
	Duration          *int
	DeliveryDays      *[]Ref
	MealTypes         *[]Ref
	DislikeCategories *[]Ref
	SubscriptionType  *SubscriptionType
	BranchID          *int64
}

// SetBilling shallow-merges into the billing facet.
type SetBilling struct {
	IsSponsor        *bool
	ManualDiscount   *float64
	CouponCode       *string
	CouponDiscount   *float64
	CouponDiscountID *int64
	PaymentMethodID  *int64
	PaymentReference *string
	UploadedFiles    *[]UploadedFile
	Notes            *string
	Total            *float64
}

// SetGeneratedPlan stores the result of the last successful
// plan-generation call.
type SetGeneratedPlan struct {
	Plan *schedule.GeneratedPlan
}

// SetTermsAccepted records the explicit terms-acceptance flag gated on the
// review step.
type SetTermsAccepted struct {
	Accepted bool
}

// Hydrate replaces the whole draft from persisted storage. Dispatched once
// at wizard mount; it never schedules a write back.
type Hydrate struct {
	Draft Draft
}

// ResetAll restores the empty draft and clears storage.
type ResetAll struct{}

// ResetPlanAndBilling restores the plan and billing facets to defaults
// while preserving the customer facet. Storage is rewritten immediately so
// only the customer facet survives a reload.
type ResetPlanAndBilling struct{}

func (SetCustomer) actionName() string         { return "setCustomer" }
func (SetPlanFacet) actionName() string        { return "setPlanFacet" }
func (SetBilling) actionName() string          { return "setBilling" }
func (SetGeneratedPlan) actionName() string    { return "setGeneratedPlan" }
func (SetTermsAccepted) actionName() string    { return "setTermsAccepted" }
func (Hydrate) actionName() string             { return "hydrate" }
func (ResetAll) actionName() string            { return "resetAll" }
func (ResetPlanAndBilling) actionName() string { return "resetPlanAndBilling" }

type persistMode int

const (
	persistNone persistMode = iota
	persistDebounced
	persistImmediate
	persistClear
)

// Store is the canonical mutable container for the wizard draft. Dispatch
// applies exactly one action atomically, notifies subscribers
// synchronously, and schedules persistence. Mutations are serialized by an
// internal mutex, standing in for the UI event loop.
type Store struct {
	mu      sync.Mutex
	draft   Draft
	subs    map[int]func(Draft)
	nextSub int
	saver   Saver
	log     logger.Logger
}

func NewStore(saver Saver, log logger.Logger) *Store {
	return &Store{
		draft: EmptyDraft(),
		subs:  map[int]func(Draft){},
		saver: saver,
		log:   log.WithFields(map[string]interface{}{"component": "wizardStore"}),
	}
}

// Snapshot returns a copy of the current draft.
func (s *Store) Snapshot() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Subscribe registers a callback invoked synchronously after every
// mutation. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Draft)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Dispatch applies the action. The reduce step is atomic: subscribers and
// the saver only ever observe the fully-applied draft.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	next, mode := reduce(s.draft, a)
	s.draft = next
	subs := make([]func(Draft), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.log.Debug("action dispatched", map[string]interface{}{"action": a.actionName()})

	for _, fn := range subs {
		fn(next)
	}

	if s.saver == nil {
		return
	}
	switch mode {
	case persistDebounced:
		s.saver.Schedule(next)
	case persistImmediate:
		s.saver.SaveNow(next)
	case persistClear:
		s.saver.Clear()
	}
}

func reduce(d Draft, a Action) (Draft, persistMode) {
	mode := persistDebounced

	switch act := a.(type) {
	case SetCustomer:
		if d.CustomerID != nil && (act.ID == nil || *act.ID != *d.CustomerID) {
			d.clearPlanFacet()
			d.clearBillingFacet()
		}
		d.CustomerID = act.ID
		d.CustomerName = act.Name
		d.CustomerPhone = act.Phone
		d.CustomerEmail = act.Email
		d.CustomerAddress = act.Address

	case SetPlanFacet:
		if act.PlanCategoryID != nil {
			d.PlanCategoryID = act.PlanCategoryID
		}
		if act.PlanID != nil {
			d.PlanID = act.PlanID
		}
		if act.StartDate != nil {
			d.StartDate = *act.StartDate
		}
		if act.Duration != nil {
			d.Duration = *act.Duration
		}
		if act.DeliveryDays != nil {
			d.DeliveryDays = *act.DeliveryDays
		}
		if act.MealTypes != nil {
			d.MealTypes = *act.MealTypes
		}
		if act.DislikeCategories != nil {
			d.DislikeCategories = *act.DislikeCategories
		}
		if act.SubscriptionType != nil {
			d.SubscriptionType = act.SubscriptionType
		}
		if act.BranchID != nil {
			d.BranchID = act.BranchID
		}
		// branchId is meaningful only for branch subscriptions.
		if d.SubscriptionType == nil || *d.SubscriptionType != SubscriptionBranch {
			d.BranchID = nil
		}

	case SetBilling:
		if act.IsSponsor != nil {
			d.IsSponsor = *act.IsSponsor
		}
		if act.ManualDiscount != nil {
			d.ManualDiscount = *act.ManualDiscount
		}
		if act.CouponCode != nil {
			d.CouponCode = *act.CouponCode
		}
		if act.CouponDiscount != nil {
			d.CouponDiscount = *act.CouponDiscount
		}
		if act.CouponDiscountID != nil {
			d.CouponDiscountID = act.CouponDiscountID
		}
		if act.PaymentMethodID != nil {
			d.PaymentMethodID = act.PaymentMethodID
		}
		if act.PaymentReference != nil {
			d.PaymentReference = *act.PaymentReference
		}
		if act.UploadedFiles != nil {
			d.UploadedFiles = *act.UploadedFiles
		}
		if act.Notes != nil {
			d.Notes = *act.Notes
		}
		if act.Total != nil {
			d.Total = *act.Total
		}

	case SetGeneratedPlan:
		d.GeneratedPlan = act.Plan

	case SetTermsAccepted:
		d.TermsAccepted = act.Accepted

	case Hydrate:
		d = act.Draft
		mode = persistNone

	case ResetAll:
		d = EmptyDraft()
		mode = persistClear

	case ResetPlanAndBilling:
		d.clearPlanFacet()
		d.clearBillingFacet()
		mode = persistImmediate
	}

	// A sponsor subscription suppresses all billing inputs no matter how
	// they were set.
	if d.IsSponsor {
		d.clearBillingFields()
	}

	return d, mode
}

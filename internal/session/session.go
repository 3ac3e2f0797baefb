// Package session wires one admin's wizard run together: the draft store,
// step controller, debounced autosave, catalog lookups, pricing, and the
// final submission pipeline.
package session

import (
	"context"
	"errors"

	"mealsub-admin/internal/audit"
	"mealsub-admin/internal/catalog"
	"mealsub-admin/internal/common/config"
	"mealsub-admin/internal/common/database"
	stderrors "mealsub-admin/internal/common/errors"
	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/common/observability"
	"mealsub-admin/internal/draft"
	"mealsub-admin/internal/notify"
	"mealsub-admin/internal/pricing"
	"mealsub-admin/internal/schedule"
	"mealsub-admin/internal/submit"
	"mealsub-admin/internal/wizard"
	"mealsub-admin/pkg/steps"

	"github.com/google/uuid"
)

var errNoPlanSelected = errors.New("no plan selected")

// Manager builds sessions. Audit and notifier are optional; a nil value
// disables that concern.
type Manager struct {
	rdb      *database.RedisClient
	catalog  catalog.Client
	cfg      *config.Config
	audit    *audit.Store
	notifier *notify.Notifier
	log      logger.Logger
}

func NewManager(rdb *database.RedisClient, cat catalog.Client, cfg *config.Config, auditStore *audit.Store, notifier *notify.Notifier, log logger.Logger) *Manager {
	return &Manager{
		rdb:      rdb,
		catalog:  cat,
		cfg:      cfg,
		audit:    auditStore,
		notifier: notifier,
		log:      log,
	}
}

// Session is one wizard run for one admin. Not safe for sharing across
// admins; all methods are safe for the UI callbacks of a single session.
type Session struct {
	ID         string
	store      *wizard.Store
	controller *wizard.Controller
	saver      *draft.Autosaver
	epochs     *catalog.Epochs
	catalog    catalog.Client
	assembler  *submit.Assembler
	audit      *audit.Store
	notifier   *notify.Notifier
	log        logger.Logger

	lastBreakdown pricing.Breakdown
}

// Open builds a session and hydrates it from any persisted draft. An empty
// sessionID starts a fresh session with a generated id.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := m.log.WithFields(map[string]interface{}{"sessionId": sessionID})

	repo, err := draft.NewRedisRepository(
		m.rdb,
		m.cfg.Wizard.DraftKeyPrefix+sessionID,
		m.cfg.Wizard.DraftTTL(),
		log,
	)
	if err != nil {
		return nil, err
	}

	saver := draft.NewAutosaver(repo, m.cfg.Wizard.Debounce(), log)
	store := wizard.NewStore(saver, log)
	controller := wizard.NewController(store, saver, log)

	s := &Session{
		ID:         sessionID,
		store:      store,
		controller: controller,
		saver:      saver,
		epochs:     catalog.NewEpochs(),
		catalog:    m.catalog,
		assembler:  submit.NewAssembler(m.catalog, log),
		audit:      m.audit,
		notifier:   m.notifier,
		log:        log,
	}

	env, err := repo.Load(ctx)
	if err != nil {
		return nil, stderrors.NewDraftDecodeFailedError(err.Error())
	}
	if env != nil {
		store.Dispatch(wizard.Hydrate{Draft: env.FormData})
		if env.CurrentStep > 0 {
			controller.RestoreStep(env.CurrentStep)
		}
		log.Info("resumed persisted draft", map[string]interface{}{"step": controller.CurrentStep()})
	}
	return s, nil
}

func (s *Session) Store() *wizard.Store           { return s.store }
func (s *Session) Controller() *wizard.Controller { return s.controller }

// Close flushes any pending debounced save.
func (s *Session) Close() {
	s.saver.Flush()
}

// ==========================
// Guarded Lookups
// ==========================

// PlansForCategory fetches the plan list for a category. The bool result
// is false when the response was superseded by a newer request for the
// same lookup kind and must be discarded.
func (s *Session) PlansForCategory(ctx context.Context, categoryID int64) ([]catalog.Plan, bool, error) {
	epoch := s.epochs.Next("plans")
	list, err := s.catalog.Plans(ctx, categoryID)
	if s.epochs.Stale("plans", epoch) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}
	return list, true, nil
}

// MealTypesForPlan fetches the meal types for a plan, with the same
// stale-response guard as PlansForCategory.
func (s *Session) MealTypesForPlan(ctx context.Context, planID int64) ([]catalog.MealType, bool, error) {
	epoch := s.epochs.Next("mealTypes")
	list, err := s.catalog.MealTypes(ctx, planID)
	if s.epochs.Stale("mealTypes", epoch) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}
	return list, true, nil
}

// ==========================
// Coupons & Pricing
// ==========================

// ApplyCoupon validates the code and, when accepted, records the resolved
// discount on the draft. A COUPON_INVALID error is surfaced inline on the
// coupon field by the caller.
func (s *Session) ApplyCoupon(ctx context.Context, code string) error {
	snap := s.store.Snapshot()
	if snap.PlanID == nil {
		return stderrors.NewCouponInvalidError(code, "no plan selected")
	}

	result, err := s.catalog.ApplyCoupon(ctx, code, *snap.PlanID)
	if err != nil {
		return err
	}

	s.store.Dispatch(wizard.SetBilling{
		CouponCode:       &code,
		CouponDiscount:   &result.Amount,
		CouponDiscountID: &result.DiscountID,
	})
	return nil
}

// Price recomputes the invoice breakdown from the selected plan, the
// backend tax settings, and the draft's discounts, and stores the total on
// the draft.
func (s *Session) Price(ctx context.Context) (pricing.Breakdown, error) {
	snap := s.store.Snapshot()
	if snap.PlanID == nil {
		return pricing.Breakdown{}, nil
	}

	plan, err := s.catalog.Plan(ctx, *snap.PlanID)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	taxSettings, _ := s.catalog.TaxSettings(ctx)

	breakdown := pricing.Price(
		plan.Price,
		pricing.Tax{
			Active:                 taxSettings.Active,
			IncludedInPrice:        taxSettings.IncludedInPrice,
			Percent:                taxSettings.Percent,
			RecomputeAfterDiscount: taxSettings.RecomputeAfterDiscount,
		},
		snap.ManualDiscount,
		snap.CouponDiscount,
		plan.BagValue,
	)

	s.lastBreakdown = breakdown
	s.store.Dispatch(wizard.SetBilling{Total: &breakdown.Total})
	return breakdown, nil
}

// ==========================
// Preview
// ==========================

// GeneratePreview asks the backend for the delivery schedule, stores it on
// the draft, and returns the date-by-meal-type pivot for rendering.
func (s *Session) GeneratePreview(ctx context.Context) (schedule.Pivot, error) {
	snap := s.store.Snapshot()
	if snap.PlanID == nil {
		return schedule.Build(nil), stderrors.NewPlanGenerationFailedError(errNoPlanSelected)
	}

	req := catalog.GeneratePlanRequest{
		PlanID:             *snap.PlanID,
		StartDate:          snap.StartDate,
		Duration:           snap.Duration,
		DeliveryDayIDs:     refIDs(snap.DeliveryDays),
		MealTypeIDs:        refIDs(snap.MealTypes),
		DislikeCategoryIDs: refIDs(snap.DislikeCategories),
	}

	plan, err := s.catalog.GeneratePlan(ctx, req)
	if err != nil {
		return schedule.Build(nil), err
	}

	s.store.Dispatch(wizard.SetGeneratedPlan{Plan: plan})
	return schedule.Build(plan.Meals), nil
}

func refIDs(refs []wizard.Ref) []int64 {
	out := make([]int64, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

// ==========================
// Submission
// ==========================

// Submit runs the full submission pipeline: review validation, pricing,
// assembly, backend creation, audit, confirmation. Validation failures
// come back as the field map; a customer-info fetch failure returns the
// wizard to the billing step.
func (s *Session) Submit(ctx context.Context) (*catalog.CreateResult, wizard.ErrorMap, error) {
	snap := s.store.Snapshot()

	if errs := wizard.Validate(steps.Review, &snap); len(errs) > 0 {
		return nil, errs, nil
	}

	breakdown := s.lastBreakdown
	if !snap.IsSponsor {
		var err error
		breakdown, err = s.Price(ctx)
		if err != nil {
			observability.Submissions.WithLabelValues("failed").Inc()
			return nil, nil, err
		}
		snap = s.store.Snapshot()
	}

	req, err := s.assembler.Assemble(ctx, snap, breakdown)
	if err != nil {
		observability.Submissions.WithLabelValues("failed").Inc()
		if stderrors.IsCode(err, stderrors.ErrCodeCustomerInfoFetchFailed) {
			s.controller.ReturnToBilling()
		}
		return nil, nil, err
	}

	result, err := s.catalog.CreateSubscription(ctx, req)
	if err != nil {
		observability.Submissions.WithLabelValues("failed").Inc()
		s.recordAudit(ctx, snap, breakdown, 0, audit.OutcomeFailed)
		return nil, nil, err
	}

	observability.Submissions.WithLabelValues("created").Inc()
	s.recordAudit(ctx, snap, breakdown, result.SubscriptionID, audit.OutcomeCreated)
	s.notifyConfirmed(ctx, snap)

	s.saver.Clear()
	s.controller.CompleteSubmission()
	return result, nil, nil
}

func (s *Session) recordAudit(ctx context.Context, snap wizard.Draft, b pricing.Breakdown, subscriptionID int64, outcome string) {
	if s.audit == nil {
		return
	}

	rec := &audit.SubmissionRecord{
		SessionID:      s.ID,
		CustomerID:     derefInt64(snap.CustomerID),
		PlanID:         derefInt64(snap.PlanID),
		SubscriptionID: subscriptionID,
		Total:          b.Total,
		Discount:       b.DiscountAmount,
		Net:            b.NetAmount,
		Tax:            b.TaxAmount,
		IsSponsor:      snap.IsSponsor,
		Outcome:        outcome,
	}
	if err := s.audit.Insert(ctx, rec); err != nil {
		s.log.Error("audit insert failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Session) notifyConfirmed(ctx context.Context, snap wizard.Draft) {
	if s.notifier == nil {
		return
	}

	planName := "meal plan"
	if snap.PlanID != nil {
		if plan, err := s.catalog.Plan(ctx, *snap.PlanID); err == nil {
			planName = plan.Name
		}
	}
	go s.notifier.Confirm(notify.Confirmation{
		CustomerName:  snap.CustomerName,
		CustomerEmail: snap.CustomerEmail,
		CustomerPhone: snap.CustomerPhone,
		PlanName:      planName,
		StartDate:     snap.StartDate,
		Total:         snap.Total,
		IsSponsor:     snap.IsSponsor,
	})
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

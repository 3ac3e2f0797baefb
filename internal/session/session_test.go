package session

import (
	"context"
	"testing"
	"time"

	"mealsub-admin/internal/catalog"
	"mealsub-admin/internal/common/config"
	"mealsub-admin/internal/common/database"
	stderrors "mealsub-admin/internal/common/errors"
	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/schedule"
	"mealsub-admin/internal/wizard"
	"mealsub-admin/pkg/steps"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Fake Catalog
// ==========================

type fakeCatalog struct {
	plan         *catalog.Plan
	coupon       *catalog.CouponResult
	couponErr    error
	infoErr      error
	createErr    error
	createdReqs  []*catalog.SubscriptionRequest
	generated    *schedule.GeneratedPlan
	generatedErr error
}

func (f *fakeCatalog) PlanCategories(ctx context.Context) ([]catalog.PlanCategory, error) {
	return []catalog.PlanCategory{{ID: 1, Name: "Keto"}}, nil
}

func (f *fakeCatalog) Plans(ctx context.Context, categoryID int64) ([]catalog.Plan, error) {
	return []catalog.Plan{*f.plan}, nil
}

func (f *fakeCatalog) Plan(ctx context.Context, id int64) (*catalog.Plan, error) {
	return f.plan, nil
}

func (f *fakeCatalog) Durations(ctx context.Context, planID int64) ([]catalog.DurationOption, error) {
	return catalog.DefaultDurations(), nil
}

func (f *fakeCatalog) MealTypes(ctx context.Context, planID int64) ([]catalog.MealType, error) {
	return []catalog.MealType{{ID: 2, Name: "Lunch"}}, nil
}

func (f *fakeCatalog) DeliveryDays(ctx context.Context) ([]catalog.DeliveryDay, error) {
	return []catalog.DeliveryDay{{ID: 1, Name: "Sunday"}}, nil
}

func (f *fakeCatalog) DislikeCategories(ctx context.Context) ([]catalog.DislikeCategory, error) {
	return nil, nil
}

func (f *fakeCatalog) Branches(ctx context.Context) ([]catalog.Branch, error) {
	return nil, nil
}

func (f *fakeCatalog) PaymentTypes(ctx context.Context) ([]catalog.PaymentType, error) {
	return catalog.DefaultPaymentTypes(), nil
}

func (f *fakeCatalog) TaxSettings(ctx context.Context) (catalog.TaxSettings, error) {
	return catalog.TaxSettings{Active: true, IncludedInPrice: true, Percent: 0.14}, nil
}

func (f *fakeCatalog) ApplyCoupon(ctx context.Context, code string, planID int64) (*catalog.CouponResult, error) {
	if f.couponErr != nil {
		return nil, f.couponErr
	}
	return f.coupon, nil
}

func (f *fakeCatalog) CustomerInfo(ctx context.Context, customerID int64) (*catalog.CustomerInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &catalog.CustomerInfo{ID: customerID, DriverID: 11, BranchID: 6, AreaID: 3}, nil
}

func (f *fakeCatalog) GeneratePlan(ctx context.Context, req catalog.GeneratePlanRequest) (*schedule.GeneratedPlan, error) {
	if f.generatedErr != nil {
		return nil, f.generatedErr
	}
	return f.generated, nil
}

func (f *fakeCatalog) CreateSubscription(ctx context.Context, req *catalog.SubscriptionRequest) (*catalog.CreateResult, error) {
	f.createdReqs = append(f.createdReqs, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &catalog.CreateResult{SubscriptionID: 500}, nil
}

// ==========================
// Test Setup
// ==========================

func newTestManager(t *testing.T, cat catalog.Client) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Wizard.DraftKeyPrefix = "wizard:draft:"
	cfg.Wizard.DraftTTLHours = 72
	cfg.Wizard.DebounceMillis = 40

	m := NewManager(database.NewRedisFromClient(client), cat, cfg, nil, nil, logger.NewTestLogger(t))
	return m, mr
}

func defaultCatalog() *fakeCatalog {
	return &fakeCatalog{
		plan:   &catalog.Plan{ID: 10, Name: "Keto Monthly", Price: 114, BagValue: 5},
		coupon: &catalog.CouponResult{DiscountID: 77, Amount: 15},
		generated: &schedule.GeneratedPlan{Meals: []schedule.ScheduledMeal{
			{MealID: 1, MealName: "Grilled Chicken", MealTypeName: "Lunch", DeliveryDate: "2026-09-07", DayName: "Monday"},
		}},
	}
}

func ptr[T any](v T) *T { return &v }

func fillValidDraft(s *Session) {
	web := wizard.SubscriptionWeb
	s.Store().Dispatch(wizard.SetCustomer{ID: ptr(int64(42)), Name: "Omar Fathy", Phone: "0100000000", Email: "omar@example.com"})
	s.Store().Dispatch(wizard.SetPlanFacet{
		PlanCategoryID:   ptr(int64(1)),
		PlanID:           ptr(int64(10)),
		StartDate:        ptr("2100-01-04"),
		Duration:         ptr(30),
		DeliveryDays:     ptr([]wizard.Ref{{ID: 1, Name: "Sunday"}}),
		MealTypes:        ptr([]wizard.Ref{{ID: 2, Name: "Lunch"}}),
		SubscriptionType: &web,
	})
	s.Store().Dispatch(wizard.SetBilling{
		PaymentMethodID:  ptr(int64(2)),
		PaymentReference: ptr("TXN-1"),
		UploadedFiles:    ptr([]wizard.UploadedFile{{Name: "receipt.pdf", Content: []byte("pdf")}}),
	})
	s.Store().Dispatch(wizard.SetTermsAccepted{Accepted: true})
}

// ==========================
// Open & Hydration
// ==========================

func TestOpenFreshSessionGeneratesID(t *testing.T) {
	m, _ := newTestManager(t, defaultCatalog())

	s, err := m.Open(context.Background(), "")

	assert.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, steps.Customer, s.Controller().CurrentStep())
}

func TestOpenHydratesPersistedDraft(t *testing.T) {
	m, _ := newTestManager(t, defaultCatalog())
	ctx := context.Background()

	first, err := m.Open(ctx, "sess-1")
	assert.NoError(t, err)
	first.Store().Dispatch(wizard.SetCustomer{ID: ptr(int64(42)), Name: "Omar Fathy"})
	first.saver.SetStep(2)
	first.Close()

	second, err := m.Open(ctx, "sess-1")
	assert.NoError(t, err)

	snap := second.Store().Snapshot()
	assert.NotNil(t, snap.CustomerID)
	assert.Equal(t, int64(42), *snap.CustomerID)
	assert.Equal(t, 2, second.Controller().CurrentStep())
}

// ==========================
// Coupons & Pricing
// ==========================

func TestApplyCouponRecordsDiscount(t *testing.T) {
	m, _ := newTestManager(t, defaultCatalog())
	s, _ := m.Open(context.Background(), "sess-1")
	fillValidDraft(s)

	assert.NoError(t, s.ApplyCoupon(context.Background(), "SUMMER"))

	snap := s.Store().Snapshot()
	assert.Equal(t, "SUMMER", snap.CouponCode)
	assert.Equal(t, 15.0, snap.CouponDiscount)
	assert.Equal(t, int64(77), *snap.CouponDiscountID)
}

func TestApplyCouponWithoutPlanFails(t *testing.T) {
	m, _ := newTestManager(t, defaultCatalog())
	s, _ := m.Open(context.Background(), "sess-1")

	err := s.ApplyCoupon(context.Background(), "SUMMER")

	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeCouponInvalid))
}

func TestPriceComputesInclusiveTaxTotal(t *testing.T) {
	m, _ := newTestManager(t, defaultCatalog())
	s, _ := m.Open(context.Background(), "sess-1")
	fillValidDraft(s)

	breakdown, err := s.Price(context.Background())

	assert.NoError(t, err)
	// 114 inclusive of 14% tax: tax 14, net 100, plus bag value 5
	assert.InDelta(t, 14.0, breakdown.TaxAmount, 0.001)
	assert.InDelta(t, 100.0, breakdown.NetAmount, 0.001)
	assert.InDelta(t, 119.0, breakdown.Total, 0.001)
	assert.Equal(t, breakdown.Total, s.Store().Snapshot().Total)
}

// ==========================
// Preview
// ==========================

func TestGeneratePreviewStoresPlanAndBuildsPivot(t *testing.T) {
	m, _ := newTestManager(t, defaultCatalog())
	s, _ := m.Open(context.Background(), "sess-1")
	fillValidDraft(s)

	pivot, err := s.GeneratePreview(context.Background())

	assert.NoError(t, err)
	assert.Len(t, pivot.Days, 1)
	assert.Equal(t, []string{"Lunch"}, pivot.MealTypes)
	assert.NotNil(t, s.Store().Snapshot().GeneratedPlan)
}

// ==========================
// Submission
// ==========================

func TestSubmitHappyPath(t *testing.T) {
	cat := defaultCatalog()
	m, mr := newTestManager(t, cat)
	s, _ := m.Open(context.Background(), "sess-1")
	fillValidDraft(s)
	s.saver.Flush()

	result, verrs, err := s.Submit(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, verrs)
	assert.Equal(t, int64(500), result.SubscriptionID)
	assert.True(t, s.Controller().InSummary())
	assert.False(t, mr.Exists("wizard:draft:sess-1"))
	assert.Len(t, cat.createdReqs, 1)
	assert.NotNil(t, cat.createdReqs[0].Invoice)
}

func TestSubmitValidationFailureReturnsFieldMap(t *testing.T) {
	m, _ := newTestManager(t, defaultCatalog())
	s, _ := m.Open(context.Background(), "sess-1")
	// terms never accepted
	web := wizard.SubscriptionWeb
	s.Store().Dispatch(wizard.SetCustomer{ID: ptr(int64(42)), Name: "Omar"})
	s.Store().Dispatch(wizard.SetPlanFacet{PlanID: ptr(int64(10)), SubscriptionType: &web})

	result, verrs, err := s.Submit(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Contains(t, verrs, "terms")
	assert.False(t, s.Controller().InSummary())
}

func TestSubmitCustomerInfoFailureReturnsToBilling(t *testing.T) {
	cat := defaultCatalog()
	cat.infoErr = stderrors.NewCustomerInfoFetchFailedError(assert.AnError)
	m, _ := newTestManager(t, cat)
	s, _ := m.Open(context.Background(), "sess-1")
	fillValidDraft(s)
	assert.True(t, s.Controller().Jump(steps.Customer))

	_, _, err := s.Submit(context.Background())

	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeCustomerInfoFetchFailed))
	assert.Equal(t, steps.Billing, s.Controller().CurrentStep())
	assert.False(t, s.Controller().InSummary())
}

func TestSubmitBackendFailureStaysOnReview(t *testing.T) {
	cat := defaultCatalog()
	cat.createErr = stderrors.NewSubmissionFailedError(assert.AnError)
	m, _ := newTestManager(t, cat)
	s, _ := m.Open(context.Background(), "sess-1")
	fillValidDraft(s)

	result, _, err := s.Submit(context.Background())

	assert.Nil(t, result)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeSubmissionFailed))
	assert.False(t, s.Controller().InSummary())
}

func TestSubmitPhoneOnlyCustomerFailsCleanly(t *testing.T) {
	// A sponsor draft with only a phone number passes review validation
	// but has no customer id to submit with.
	cat := defaultCatalog()
	m, _ := newTestManager(t, cat)
	s, _ := m.Open(context.Background(), "sess-1")
	s.Store().Dispatch(wizard.SetCustomer{Name: "Omar Fathy", Phone: "0101234567"})
	s.Store().Dispatch(wizard.SetBilling{IsSponsor: ptr(true)})
	s.Store().Dispatch(wizard.SetTermsAccepted{Accepted: true})

	var result *catalog.CreateResult
	var verrs wizard.ErrorMap
	var err error
	assert.NotPanics(t, func() {
		result, verrs, err = s.Submit(context.Background())
	})

	assert.Nil(t, result)
	assert.Empty(t, verrs)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeSubmissionFailed))
	assert.False(t, s.Controller().InSummary())
	assert.Empty(t, cat.createdReqs)
}

func TestSubmitSponsorSendsNoInvoice(t *testing.T) {
	cat := defaultCatalog()
	m, _ := newTestManager(t, cat)
	s, _ := m.Open(context.Background(), "sess-1")
	fillValidDraft(s)
	s.Store().Dispatch(wizard.SetBilling{IsSponsor: ptr(true)})

	result, verrs, err := s.Submit(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, verrs)
	assert.NotNil(t, result)
	assert.Nil(t, cat.createdReqs[0].Invoice)
}

// ==========================
// Guarded Lookups
// ==========================

func TestPlansForCategoryFreshResponse(t *testing.T) {
	m, _ := newTestManager(t, defaultCatalog())
	s, _ := m.Open(context.Background(), "sess-1")

	plans, fresh, err := s.PlansForCategory(context.Background(), 1)

	assert.NoError(t, err)
	assert.True(t, fresh)
	assert.Len(t, plans, 1)
}

func TestDebouncedSavePersistsAfterQuietWindow(t *testing.T) {
	m, mr := newTestManager(t, defaultCatalog())
	s, _ := m.Open(context.Background(), "sess-1")
	fillValidDraft(s)

	assert.Eventually(t, func() bool {
		return mr.Exists("wizard:draft:sess-1")
	}, time.Second, 5*time.Millisecond)
}

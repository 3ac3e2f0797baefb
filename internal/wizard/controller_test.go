package wizard

import (
	"testing"

	"mealsub-admin/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Setup
// ==========================

type recordingTracker struct {
	steps []int
}

func (r *recordingTracker) SetStep(n int) { r.steps = append(r.steps, n) }

func newController(t *testing.T) (*Controller, *Store, *recordingTracker) {
	t.Helper()
	tracker := &recordingTracker{}
	store := NewStore(nil, logger.NewTestLogger(t))
	return NewController(store, tracker, logger.NewTestLogger(t)), store, tracker
}

func completeCustomerStep(store *Store) {
	store.Dispatch(SetCustomer{ID: ptr(int64(42)), Name: "Omar", Phone: "0100000000"})
}

// ==========================
// Forward Navigation
// ==========================

func TestNextBlocksOnInvalidCustomerStep(t *testing.T) {
	c, _, _ := newController(t)

	ok, errs := c.Next()

	assert.False(t, ok)
	assert.Contains(t, errs, "customer")
	assert.Equal(t, StepCustomer, c.CurrentStep())
	assert.Equal(t, StatusError, c.Status(StepCustomer))
}

func TestNextAdvancesAndClearsErrors(t *testing.T) {
	c, store, tracker := newController(t)
	c.Next() // record an error first

	completeCustomerStep(store)
	ok, errs := c.Next()

	assert.True(t, ok)
	assert.Empty(t, errs)
	assert.Equal(t, StepPlan, c.CurrentStep())
	assert.Empty(t, c.Errors(StepCustomer))
	assert.Equal(t, StatusCompleted, c.Status(StepCustomer))
	assert.Equal(t, []int{2}, tracker.steps)
}

func TestPlanStepIsSelfGated(t *testing.T) {
	c, store, _ := newController(t)
	completeCustomerStep(store)
	c.Next()

	// the plan facet is empty, but step 2 validates itself before it
	// signals advance, so the controller lets Next through
	ok, errs := c.Next()

	assert.True(t, ok)
	assert.Empty(t, errs)
	assert.Equal(t, StepPreview, c.CurrentStep())
}

func TestNextStopsAtReviewStep(t *testing.T) {
	c, store, _ := newController(t)
	completeCustomerStep(store)
	store.Dispatch(SetBilling{
		PaymentMethodID: ptr(int64(2)),
		UploadedFiles:   ptr([]UploadedFile{{Name: "receipt.pdf"}}),
	})
	store.Dispatch(SetTermsAccepted{Accepted: true})

	for i := 0; i < 6; i++ {
		c.Next()
	}

	assert.Equal(t, StepReview, c.CurrentStep())
	assert.False(t, c.InSummary())
}

// ==========================
// Backward Navigation
// ==========================

func TestPreviousDecrementsAndJumps(t *testing.T) {
	c, store, _ := newController(t)
	completeCustomerStep(store)
	c.Next()
	c.Next()
	assert.Equal(t, StepPreview, c.CurrentStep())

	c.Previous()
	assert.Equal(t, StepPlan, c.CurrentStep())

	c.Next()
	c.Previous(StepCustomer)
	assert.Equal(t, StepCustomer, c.CurrentStep())
}

func TestPreviousIgnoresForwardTargets(t *testing.T) {
	c, store, _ := newController(t)
	completeCustomerStep(store)
	c.Next()

	c.Previous(StepBilling)

	assert.Equal(t, StepPlan, c.CurrentStep())
}

func TestPreviousStopsAtFirstStep(t *testing.T) {
	c, _, _ := newController(t)

	c.Previous()

	assert.Equal(t, StepCustomer, c.CurrentStep())
}

// ==========================
// Jump
// ==========================

func TestJumpRules(t *testing.T) {
	c, store, _ := newController(t)
	completeCustomerStep(store)
	c.Next()
	c.Next()
	c.Previous(StepCustomer)
	// completed through step 2, currently on step 1

	assert.True(t, c.Jump(StepPlan), "completed steps are reachable")
	assert.True(t, c.Jump(StepCustomer), "backward always allowed")
	assert.False(t, c.Jump(StepBilling), "uncompleted forward steps refused")
	assert.False(t, c.Jump(0))
	assert.False(t, c.Jump(9))
	assert.Equal(t, StepCustomer, c.CurrentStep())
}

// ==========================
// Terminal Summary
// ==========================

func TestSummaryStateIsTerminal(t *testing.T) {
	c, store, _ := newController(t)
	completeCustomerStep(store)
	c.Next()

	c.CompleteSubmission()

	assert.True(t, c.InSummary())
	ok, _ := c.Next()
	assert.False(t, ok)
	assert.False(t, c.Jump(StepCustomer))
	c.Previous()
	c.ReturnToBilling()
	assert.Equal(t, StepPlan, c.CurrentStep())
	assert.True(t, c.InSummary())
}

// ==========================
// Hydration
// ==========================

func TestRestoreStep(t *testing.T) {
	tests := []struct {
		name         string
		restored     int
		expectedStep int
		jumpTarget   int
		jumpAllowed  bool
	}{
		{
			name:         "mid wizard restore",
			restored:     4,
			expectedStep: 4,
			jumpTarget:   3,
			jumpAllowed:  true,
		},
		{
			name:         "out of range falls back to first step",
			restored:     11,
			expectedStep: 1,
			jumpTarget:   2,
			jumpAllowed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newController(t)

			c.RestoreStep(tt.restored)

			assert.Equal(t, tt.expectedStep, c.CurrentStep())
			assert.Equal(t, tt.jumpAllowed, c.Jump(tt.jumpTarget))
		})
	}
}

func TestReturnToBillingAfterAssemblyFailure(t *testing.T) {
	c, _, tracker := newController(t)
	c.RestoreStep(StepReview)

	c.ReturnToBilling()

	assert.Equal(t, StepBilling, c.CurrentStep())
	assert.Contains(t, tracker.steps, StepBilling)
}

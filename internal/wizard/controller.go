package wizard

import (
	"strconv"
	"sync"

	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/common/observability"
	"mealsub-admin/pkg/steps"
)

// Step ordinals re-exported for this package's rule tables.
const (
	StepCustomer = steps.Customer
	StepPlan     = steps.Plan
	StepPreview  = steps.Preview
	StepBilling  = steps.Billing
	StepReview   = steps.Review
)

// StepStatus is the rendering status of a step relative to the current one.
type StepStatus string

const (
	StatusCurrent   StepStatus = "current"
	StatusCompleted StepStatus = "completed"
	StatusError     StepStatus = "error"
	StatusUpcoming  StepStatus = "upcoming"
)

// StepTracker receives the current step so the persisted envelope can
// restore it on reload. The draft autosaver implements this.
type StepTracker interface {
	SetStep(n int)
}

// Controller owns the current-step index, step status derivation, and
// navigation. Forward motion is gated by the validator except for
// self-gated steps; backward motion is always allowed. A successful
// submission moves the wizard into a terminal summary state that no
// navigation can leave or re-enter.
type Controller struct {
	mu           sync.Mutex
	store        *Store
	tracker      StepTracker
	current      int
	maxCompleted int
	errs         map[int]ErrorMap
	summary      bool
	log          logger.Logger
}

func NewController(store *Store, tracker StepTracker, log logger.Logger) *Controller {
	return &Controller{
		store:   store,
		tracker: tracker,
		current: steps.Customer,
		errs:    map[int]ErrorMap{},
		log:     log.WithFields(map[string]interface{}{"component": "wizardController"}),
	}
}

// CurrentStep returns the current step ordinal.
func (c *Controller) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// InSummary reports whether the wizard has reached the terminal summary
// display.
func (c *Controller) InSummary() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Errors returns the recorded errors for a step, if any.
func (c *Controller) Errors(step int) ErrorMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs[step]
}

// Status derives the rendering status of step n.
func (c *Controller) Status(n int) StepStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= c.current && len(c.errs[n]) > 0 {
		return StatusError
	}
	switch {
	case n == c.current:
		return StatusCurrent
	case n < c.current:
		return StatusCompleted
	default:
		return StatusUpcoming
	}
}

// Next validates the current step and advances on success. Self-gated
// steps advance without controller-side validation. On failure the errors
// are recorded, the step does not change, and the error map is returned.
func (c *Controller) Next() (bool, ErrorMap) {
	draft := c.store.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.summary {
		return false, nil
	}

	step, ok := steps.ByOrdinal(c.current)
	if !ok {
		return false, nil
	}

	if !step.SelfGated {
		if errs := Validate(c.current, &draft); len(errs) > 0 {
			c.errs[c.current] = errs
			observability.ValidationFailures.WithLabelValues(strconv.Itoa(c.current)).Inc()
			c.log.Debug("step validation failed", map[string]interface{}{
				"step":   c.current,
				"fields": len(errs),
			})
			return false, errs
		}
	}

	// Successful validation clears all recorded errors.
	c.errs = map[int]ErrorMap{}
	if c.current > c.maxCompleted {
		c.maxCompleted = c.current
	}
	if c.current < steps.Count {
		c.setStepLocked(c.current + 1)
	}
	return true, nil
}

// Previous moves backward. With a target in [1, current) it jumps there
// directly; otherwise it decrements by one. Backward motion never
// validates.
func (c *Controller) Previous(target ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.summary {
		return
	}

	if len(target) > 0 {
		t := target[0]
		if t >= 1 && t < c.current {
			c.setStepLocked(t)
		}
		return
	}
	if c.current > 1 {
		c.setStepLocked(c.current - 1)
	}
}

// Jump moves to step n if n is at or before the current step or was
// previously completed. Anything else is ignored.
func (c *Controller) Jump(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.summary {
		return false
	}
	if _, ok := steps.ByOrdinal(n); !ok {
		return false
	}
	if n > c.current && n > c.maxCompleted {
		return false
	}
	c.setStepLocked(n)
	return true
}

// CompleteSubmission moves the wizard out of the step sequence into the
// terminal summary display. One-way; Jump cannot reach or leave it.
func (c *Controller) CompleteSubmission() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = true
	c.log.Info("wizard entered summary state", nil)
}

// ReturnToBilling restores the billing step after a fatal submission
// failure (customer-info fetch failed during assembly).
func (c *Controller) ReturnToBilling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary {
		return
	}
	c.setStepLocked(steps.Billing)
}

// RestoreStep re-applies a persisted current step during hydration. Out of
// range values fall back to step 1.
func (c *Controller) RestoreStep(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := steps.ByOrdinal(n); !ok {
		n = steps.Customer
	}
	c.setStepLocked(n)
	if n > 1 {
		c.maxCompleted = n - 1
	}
}

func (c *Controller) setStepLocked(n int) {
	if n == c.current {
		return
	}
	observability.StepTransitions.WithLabelValues(
		strconv.Itoa(c.current), strconv.Itoa(n),
	).Inc()
	c.current = n
	if c.tracker != nil {
		c.tracker.SetStep(n)
	}
}

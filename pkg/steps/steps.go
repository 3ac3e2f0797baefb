// Package steps is the static registry of the wizard's five ordinal steps.
// The terminal summary display is not a step; it is a one-way state owned
// by the controller.
package steps

// Ordinals of the wizard steps.
const (
	Customer = 1
	Plan     = 2
	Preview  = 3
	Billing  = 4
	Review   = 5

	Count = 5
)

// Step describes one wizard step.
type Step struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	// SelfGated steps validate themselves before signaling advance; the
	// controller does not re-validate them on Next.
	SelfGated bool `json:"selfGated"`
}

var registry = []Step{
	{Ordinal: Customer, Name: "customer", Title: "Customer"},
	{Ordinal: Plan, Name: "plan", Title: "Plan & Schedule", SelfGated: true},
	{Ordinal: Preview, Name: "preview", Title: "Plan Preview"},
	{Ordinal: Billing, Name: "billing", Title: "Billing"},
	{Ordinal: Review, Name: "review", Title: "Review & Confirm"},
}

// All returns the steps in order.
func All() []Step {
	out := make([]Step, len(registry))
	copy(out, registry)
	return out
}

// ByOrdinal returns the step with the given ordinal; ok is false for
// ordinals outside 1..Count.
func ByOrdinal(n int) (Step, bool) {
	if n < 1 || n > Count {
		return Step{}, false
	}
	return registry[n-1], true
}

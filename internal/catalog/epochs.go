package catalog

import (
	"sync"

	"mealsub-admin/internal/common/observability"
)

// Epochs is a monotonic sequence per lookup kind. A caller stamps a
// request with Next before issuing it and checks Stale when the response
// arrives; a response stamped before a newer request is discarded instead
// of overwriting fresher state. In-flight requests are never cancelled,
// only ignored.
type Epochs struct {
	mu      sync.Mutex
	current map[string]uint64
}

func NewEpochs() *Epochs {
	return &Epochs{current: make(map[string]uint64)}
}

// Next advances the sequence for kind and returns the new epoch.
func (e *Epochs) Next(kind string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current[kind]++
	return e.current[kind]
}

// Current returns the latest epoch issued for kind.
func (e *Epochs) Current(kind string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current[kind]
}

// Stale reports whether a response stamped with epoch has been superseded.
// Stale responses are counted per kind.
func (e *Epochs) Stale(kind string, epoch uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch < e.current[kind] {
		observability.LookupStaleDrops.WithLabelValues(kind).Inc()
		return true
	}
	return false
}

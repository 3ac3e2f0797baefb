package draft

import (
	"context"
	"sync"
	"time"

	stderrors "mealsub-admin/internal/common/errors"
	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/common/observability"
	"mealsub-admin/internal/wizard"
)

const saveTimeout = 3 * time.Second

// Autosaver implements wizard.Saver and wizard.StepTracker. Schedule
// debounces writes behind a quiet window; a new call cancels the pending
// timer so rapid edits collapse into one write. Drafts with no meaningful
// data are never persisted.
type Autosaver struct {
	mu      sync.Mutex
	repo    Repository
	delay   time.Duration
	timer   *time.Timer
	pending *wizard.Draft
	step    int
	log     logger.Logger
}

func NewAutosaver(repo Repository, delay time.Duration, log logger.Logger) *Autosaver {
	return &Autosaver{
		repo:  repo,
		delay: delay,
		step:  1,
		log:   log.WithFields(map[string]interface{}{"component": "draftAutosaver"}),
	}
}

// SetStep records the current step for the persisted envelope.
func (a *Autosaver) SetStep(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.step = n
}

// Schedule requests a debounced write. Autosave suspends rather than
// blocks: the caller returns immediately.
func (a *Autosaver) Schedule(d wizard.Draft) {
	if !d.HasMeaningfulData() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = &d
	if a.timer != nil {
		a.timer.Stop()
		observability.DraftSavesCoalesced.Inc()
	}
	a.timer = time.AfterFunc(a.delay, a.flushPending)
}

// SaveNow writes immediately, bypassing the debounce window. A draft with
// no meaningful data clears storage instead, so a partial reset is always
// mirrored to storage.
func (a *Autosaver) SaveNow(d wizard.Draft) {
	a.mu.Lock()
	a.cancelLocked()
	step := a.step
	a.mu.Unlock()

	if !d.HasMeaningfulData() {
		a.clearStorage()
		return
	}
	a.write(&d, step)
}

// Clear cancels any pending write and removes the persisted draft.
func (a *Autosaver) Clear() {
	a.mu.Lock()
	a.cancelLocked()
	a.mu.Unlock()
	a.clearStorage()
}

// Flush forces a pending debounced write out immediately. Used on
// shutdown and in tests.
func (a *Autosaver) Flush() {
	a.flushPending()
}

func (a *Autosaver) flushPending() {
	a.mu.Lock()
	d := a.pending
	step := a.step
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if d == nil {
		return
	}
	a.write(d, step)
}

func (a *Autosaver) cancelLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}

func (a *Autosaver) write(d *wizard.Draft, step int) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	env := &Envelope{
		FormData:    *d,
		CurrentStep: step,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.repo.Save(ctx, env); err != nil {
		a.log.WithError(stderrors.NewDraftSaveFailedError(err)).Error(
			"draft save failed", map[string]interface{}{"step": step},
		)
		return
	}
	observability.DraftSaves.Inc()
}

func (a *Autosaver) clearStorage() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := a.repo.Clear(ctx); err != nil {
		a.log.Error("draft clear failed", map[string]interface{}{"error": err.Error()})
	}
}

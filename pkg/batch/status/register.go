// Package status tracks the live, pollable state of batch runs.
//
// Each run owns one Register: a single-writer (the batch loop),
// multi-reader record of progress, totals, elapsed time, and phase. A
// Registry keys registers by run ID so concurrent runs never share state.
package status

import (
	"sync"
	"time"
)

// Phase is the lifecycle phase of a batch run.
//
// Phases are strictly ordered and never move backward:
// not_started -> initiated -> running -> (completed | failed).
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInitiated  Phase = "initiated"
	PhaseRunning    Phase = "running"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// rank orders phases for monotonicity checks. Completed and failed are
// both terminal.
func (p Phase) rank() int {
	switch p {
	case PhaseInitiated:
		return 1
	case PhaseRunning:
		return 2
	case PhaseCompleted, PhaseFailed:
		return 3
	default:
		return 0
	}
}

// Terminal reports whether the phase is an end state.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Snapshot is a point-in-time read of a register.
type Snapshot struct {
	Progress       int    `json:"progress"`
	Total          int    `json:"total"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Phase          Phase  `json:"phase"`
	ResultLocation string `json:"result_location,omitempty"`
}

// Register is the mutable status record for one batch run.
//
// The batch loop is the only writer; any number of pollers may call
// Snapshot concurrently. Reads never block on the loop's work, only on
// the brief field copy under the lock.
type Register struct {
	mu             sync.RWMutex
	phase          Phase
	progress       int
	total          int
	elapsed        time.Duration
	resultLocation string
}

// NewRegister returns a register in the not_started phase.
func NewRegister() *Register {
	return &Register{phase: PhaseNotStarted}
}

// Init marks the run initiated with the given total and zeroed progress.
//
// Callers must invoke Init synchronously before scheduling the loop so a
// status query immediately after start never observes not_started.
func (r *Register) Init(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase.Terminal() {
		return
	}
	r.setPhase(PhaseInitiated)
	r.progress = 0
	r.total = total
	r.elapsed = 0
	r.resultLocation = ""
}

// Advance records one more completed item. Progress never decreases and
// never exceeds the total; the phase moves to running unless the run is
// already terminal.
func (r *Register) Advance(completed int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase.Terminal() {
		return
	}
	r.setPhase(PhaseRunning)
	if completed > r.progress {
		r.progress = completed
	}
	if r.progress > r.total {
		r.progress = r.total
	}
	r.elapsed = elapsed
}

// Finish marks the run completed, pins progress to the total, and records
// the result location.
func (r *Register) Finish(resultLocation string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase.Terminal() {
		return
	}
	r.setPhase(PhaseCompleted)
	r.progress = r.total
	r.elapsed = elapsed
	r.resultLocation = resultLocation
}

// Fail marks the run failed. The result location stays empty: a failed
// run produced no output.
func (r *Register) Fail(elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase.Terminal() {
		return
	}
	r.setPhase(PhaseFailed)
	r.elapsed = elapsed
}

// Snapshot returns the current values. It never blocks on the writer
// beyond the field copy.
func (r *Register) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Progress:       r.progress,
		Total:          r.total,
		ElapsedSeconds: int64(r.elapsed / time.Second),
		Phase:          r.phase,
		ResultLocation: r.resultLocation,
	}
}

// setPhase applies p only if it does not move backward. Callers hold the
// write lock.
func (r *Register) setPhase(p Phase) {
	if p.rank() >= r.phase.rank() {
		r.phase = p
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package train

import (
	"errors"
	"sync"
)

// ErrTrainingInProgress rejects a training request while another run is
// already running (single-run admission control).
var ErrTrainingInProgress = errors.New("a training run is already in progress")

// Status is the coarse training state: idle -> running -> done|failed.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Report is a point-in-time snapshot of training progress for pollers.
type Report struct {
	Status   Status  `json:"status"`
	Progress int     `json:"progress"`
	Last     *Result `json:"last"`
	Error    string  `json:"error,omitempty"`
}

// Tracker is the single process-wide mutable training-progress slot.
// Only the training task writes; readers poll Snapshot.
type Tracker struct {
	mu  sync.Mutex
	rep Report
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{rep: Report{Status: StatusIdle}}
}

// Begin transitions to running, or returns ErrTrainingInProgress when a
// run is already in flight.
func (t *Tracker) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rep.Status == StatusRunning {
		return ErrTrainingInProgress
	}
	t.rep = Report{Status: StatusRunning, Progress: 10, Last: t.rep.Last}
	return nil
}

// Finish records a successful run.
func (t *Tracker) Finish(res Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rep = Report{Status: StatusDone, Progress: 100, Last: &res}
}

// Fail records a failed run, keeping the previous successful result
// visible.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rep = Report{Status: StatusFailed, Progress: 100, Last: t.rep.Last, Error: err.Error()}
}

// Snapshot returns the current progress report.
func (t *Tracker) Snapshot() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rep
}

package launch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle of a single launch.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateTimedOut  State = "timed_out"
	StateFailed    State = "failed"
)

// Handle tracks one in-flight or finished launch. Discarding a launch means
// calling Cancel; Wait blocks until the launch goroutine has fully returned.
type Handle struct {
	ID         string
	CampaignID int
	Throttle   int
	StartedAt  time.Time

	cancel   context.CancelFunc
	done     chan struct{}
	progress atomic.Int32

	mu         sync.Mutex
	state      State
	err        error
	finishedAt time.Time
}

func newHandle(id string, campaignID, throttle int, startedAt time.Time, cancel context.CancelFunc) *Handle {
	h := &Handle{
		ID:         id,
		CampaignID: campaignID,
		Throttle:   throttle,
		StartedAt:  startedAt,
		cancel:     cancel,
		done:       make(chan struct{}),
		state:      StateRunning,
	}
	h.progress.Store(-1)
	return h
}

// Cancel stops the launch before its next tick. It is safe to call more than
// once and after completion.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the launch has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the launch finishes and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.Err()
}

// Err returns the launch error; nil while running or after success.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Progress returns the last observed progress value, -1 before the first tick.
func (h *Handle) Progress() int {
	return int(h.progress.Load())
}

func (h *Handle) finish(err error, at time.Time) {
	h.mu.Lock()
	h.err = err
	h.state = stateFor(err)
	h.finishedAt = at
	h.mu.Unlock()
	close(h.done)
}

func stateFor(err error) State {
	switch {
	case err == nil:
		return StateCompleted
	case errors.Is(err, ErrLaunchTimeout):
		return StateTimedOut
	case errors.Is(err, context.Canceled):
		return StateCancelled
	default:
		return StateFailed
	}
}

// Snapshot is a point-in-time view of a launch.
type Snapshot struct {
	ID         string     `json:"id"`
	CampaignID int        `json:"campaign_id"`
	Throttle   int        `json:"throttle"`
	State      State      `json:"state"`
	Progress   int        `json:"progress"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Snapshot returns the current view of the launch.
func (h *Handle) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := Snapshot{
		ID:         h.ID,
		CampaignID: h.CampaignID,
		Throttle:   h.Throttle,
		State:      h.state,
		Progress:   int(h.progress.Load()),
		StartedAt:  h.StartedAt,
	}
	if !h.finishedAt.IsZero() {
		at := h.finishedAt
		s.FinishedAt = &at
	}
	if h.err != nil {
		s.Error = h.err.Error()
	}
	return s
}

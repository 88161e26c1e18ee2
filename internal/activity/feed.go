// Package activity keeps the history of user-facing notifications.
package activity

import (
	"sync"
	"time"

	"outreach/internal/core"
)

const defaultBuffer = 1000

// Feed collects notices from any goroutine and keeps them in arrival order.
// It implements core.Notifier.
type Feed struct {
	notices   []core.Notice
	ch        chan core.Notice
	done      chan struct{}
	mu        sync.Mutex
	closeOnce sync.Once
	closed    bool
	clock     core.Clock
	startTime time.Time
	endTime   time.Time
	dropped   int
}

// Option configures a Feed.
type Option func(*Feed)

// WithClock sets the clock used to timestamp notices.
func WithClock(c core.Clock) Option {
	return func(f *Feed) { f.clock = c }
}

// NewFeed creates a Feed and starts its collection goroutine. Call Close to
// stop it.
func NewFeed(opts ...Option) *Feed {
	f := &Feed{
		notices: make([]core.Notice, 0),
		ch:      make(chan core.Notice, defaultBuffer),
		done:    make(chan struct{}),
		clock:   core.RealClock{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.startTime = f.clock.Now()
	go f.collect()
	return f
}

func (f *Feed) collect() {
	for n := range f.ch {
		f.mu.Lock()
		f.notices = append(f.notices, n)
		f.mu.Unlock()
	}
	close(f.done)
}

// Notify records a notice. It never blocks; notices that arrive while the
// buffer is full, or after Close, are counted as dropped.
func (f *Feed) Notify(kind core.Kind, message string) {
	n := core.Notice{Kind: kind, Message: message, Timestamp: f.clock.Now()}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		f.dropped++
		return
	}
	select {
	case f.ch <- n:
	default:
		f.dropped++
	}
}

// Close stops accepting notices and waits until buffered ones are recorded.
func (f *Feed) Close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.endTime = f.clock.Now()
		close(f.ch)
		f.mu.Unlock()
		<-f.done
	})
}

// Notices returns a copy of the recorded notices, oldest first.
func (f *Feed) Notices() []core.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Notice, len(f.notices))
	copy(out, f.notices)
	return out
}

// Dropped returns the number of notices that could not be recorded.
func (f *Feed) Dropped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Duration returns how long the feed has been (or was) open.
func (f *Feed) Duration() time.Duration {
	f.mu.Lock()
	end, closed := f.endTime, f.closed
	f.mu.Unlock()
	if closed {
		return end.Sub(f.startTime)
	}
	return f.clock.Since(f.startTime)
}

// Summarize computes the summary of everything recorded so far.
func (f *Feed) Summarize() *Summary {
	s := Summarize(f.Notices(), f.Duration())
	s.Dropped = f.Dropped()
	return s
}

// Package launch simulates the throttled, progressive rollout of a campaign.
package launch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"outreach/internal/campaign"
	"outreach/internal/core"
	"outreach/internal/ratelimit"
)

const (
	// DefaultTickInterval is the pause between two progress ticks.
	DefaultTickInterval = 150 * time.Millisecond

	// maxRetainedLaunches bounds how many finished handles stay available
	// to Lookup.
	maxRetainedLaunches = 128
)

var (
	// ErrLaunchTimeout indicates a launch exceeded Config.MaxDuration.
	ErrLaunchTimeout = errors.New("launch timed out")
	// ErrObserverPanic indicates the progress observer panicked.
	ErrObserverPanic = errors.New("progress observer panicked")
	// ErrClosed indicates the simulator no longer accepts launches.
	ErrClosed = errors.New("launch simulator closed")
	// ErrUnknownLaunch indicates no launch with the given id is known.
	ErrUnknownLaunch = errors.New("unknown launch")
)

// Store is the part of the campaign store a launch needs.
type Store interface {
	BeginLaunch(id int, throttle int) (campaign.Campaign, error)
	CommitLaunch(id int) error
	EndLaunch(id int)
}

// Config controls launch pacing.
type Config struct {
	TickInterval time.Duration       // pause between ticks; 0 disables pacing
	MaxDuration  time.Duration       // 0 = unbounded
	Sequence     core.SequenceConfig // progress shape, defaults to 0..100 by 5
}

// DefaultConfig returns the pacing used by the dashboard.
func DefaultConfig() Config {
	return Config{TickInterval: DefaultTickInterval}
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithNotifier sets the sink that receives launch outcomes.
func WithNotifier(n core.Notifier) Option {
	return func(s *Simulator) { s.notifier = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithClock sets the clock used for handle timestamps.
func WithClock(c core.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// Simulator runs launches, one goroutine per launch. Launches for different
// campaigns run independently; the store's busy token keeps a campaign to a
// single launch at a time.
type Simulator struct {
	store    Store
	config   Config
	notifier core.Notifier
	logger   *zap.Logger
	clock    core.Clock

	wg     sync.WaitGroup
	active atomic.Int32

	mu       sync.Mutex
	closed   bool
	handles  map[string]*Handle
	finished []string
}

// NewSimulator creates a Simulator bound to store.
func NewSimulator(store Store, config Config, opts ...Option) *Simulator {
	s := &Simulator{
		store:    store,
		config:   config,
		notifier: core.NopNotifier,
		logger:   zap.NewNop(),
		clock:    core.RealClock{},
		handles:  make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Launch runs a launch to completion and returns its error. Cancelling ctx
// cancels the launch.
func (s *Simulator) Launch(ctx context.Context, campaignID, throttle int, onProgress core.ProgressFunc) error {
	h, err := s.Start(ctx, campaignID, throttle, onProgress)
	if err != nil {
		return err
	}
	return h.Wait()
}

// Start begins a launch and returns its handle without waiting. Validation
// and concurrency-guard errors are returned synchronously.
func (s *Simulator) Start(ctx context.Context, campaignID, throttle int, onProgress core.ProgressFunc) (*Handle, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	c, err := s.store.BeginLaunch(campaignID, throttle)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := newHandle(uuid.NewString(), campaignID, throttle, s.clock.Now(), cancel)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		s.store.EndLaunch(campaignID)
		return nil, ErrClosed
	}
	s.handles[h.ID] = h
	s.wg.Add(1)
	s.active.Add(1)
	s.mu.Unlock()

	runCtx = core.ContextWithLaunchID(runCtx, h.ID)
	go s.run(runCtx, h, c, onProgress)
	return h, nil
}

func (s *Simulator) run(ctx context.Context, h *Handle, c campaign.Campaign, onProgress core.ProgressFunc) {
	defer s.wg.Done()
	defer s.active.Add(-1)

	if s.config.MaxDuration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeoutCause(ctx, s.config.MaxDuration, ErrLaunchTimeout)
		defer stop()
	}

	s.logger.Info("Launch started",
		zap.String("launch_id", core.LaunchIDFromContext(ctx)),
		zap.Int("campaign_id", c.ID),
		zap.String("campaign", c.Name),
		zap.Int("throttle", h.Throttle),
		zap.Int("steps", len(c.Steps)))

	err := s.execute(ctx, h, c, onProgress)

	// A successful commit already released the token, and a newer launch may
	// hold it by now.
	if err != nil {
		s.store.EndLaunch(c.ID)
	}
	s.report(ctx, h, c, err)
	h.finish(err, s.clock.Now())
	h.cancel()
	s.retire(h.ID)
}

// execute drives the tick sequence and commits the transition to Active.
// When it returns an error the token is still held and run releases it.
func (s *Simulator) execute(ctx context.Context, h *Handle, c campaign.Campaign, onProgress core.ProgressFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("launch campaign %d: %w: %v", c.ID, ErrObserverPanic, r)
		}
	}()

	pacer := ratelimit.NewPacer(s.config.TickInterval)
	seq := core.NewSequence(func(p int) {
		h.progress.Store(int32(p))
		if onProgress != nil {
			onProgress(p)
		}
	}, s.config.Sequence)

	for !seq.Done() {
		if err := pacer.Wait(ctx); err != nil {
			return interrupted(ctx, c.ID)
		}
		if ctx.Err() != nil {
			return interrupted(ctx, c.ID)
		}
		if err := seq.Tick(); err != nil {
			return err
		}
	}

	// A cancel issued from the final observer call still wins.
	if ctx.Err() != nil {
		return interrupted(ctx, c.ID)
	}
	if err := s.store.CommitLaunch(c.ID); err != nil {
		return fmt.Errorf("launch campaign %d: %w", c.ID, err)
	}
	return nil
}

func interrupted(ctx context.Context, campaignID int) error {
	if errors.Is(context.Cause(ctx), ErrLaunchTimeout) {
		return fmt.Errorf("launch campaign %d: %w", campaignID, ErrLaunchTimeout)
	}
	return fmt.Errorf("launch campaign %d: %w", campaignID, ctx.Err())
}

func (s *Simulator) report(ctx context.Context, h *Handle, c campaign.Campaign, err error) {
	fields := []zap.Field{
		zap.String("launch_id", core.LaunchIDFromContext(ctx)),
		zap.Int("campaign_id", c.ID),
		zap.Int("progress", h.Progress()),
		zap.Duration("elapsed", s.clock.Since(h.StartedAt)),
	}

	switch stateFor(err) {
	case StateCompleted:
		s.logger.Info("Launch completed", fields...)
		s.notifier.Notify(core.KindSuccess, fmt.Sprintf("Campaign %q launched!", c.Name))
	case StateCancelled:
		s.logger.Info("Launch cancelled", fields...)
		s.notifier.Notify(core.KindInfo, fmt.Sprintf("Campaign %q launch cancelled", c.Name))
	case StateTimedOut:
		s.logger.Warn("Launch timed out", append(fields, zap.Duration("max_duration", s.config.MaxDuration))...)
		s.notifier.Notify(core.KindError, fmt.Sprintf("Campaign %q launch timed out after %v", c.Name, s.config.MaxDuration))
	default:
		s.logger.Error("Launch failed", append(fields, zap.Error(err))...)
		s.notifier.Notify(core.KindError, fmt.Sprintf("Campaign %q launch failed: %v", c.Name, err))
	}
}

// retire keeps the most recent finished handles available to Lookup.
func (s *Simulator) retire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, id)
	for len(s.finished) > maxRetainedLaunches {
		delete(s.handles, s.finished[0])
		s.finished = s.finished[1:]
	}
}

// Lookup returns the handle for a running or recently finished launch.
func (s *Simulator) Lookup(launchID string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[launchID]
	return h, ok
}

// Launches returns snapshots of all known launches.
func (s *Simulator) Launches() []Snapshot {
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	out := make([]Snapshot, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.Snapshot())
	}
	return out
}

// ActiveLaunches returns the number of launches still running.
func (s *Simulator) ActiveLaunches() int {
	return int(s.active.Load())
}

// Wait blocks until every started launch has finished.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

// Close rejects new launches, cancels in-flight ones and waits for them.
func (s *Simulator) Close() {
	s.mu.Lock()
	s.closed = true
	running := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		running = append(running, h)
	}
	s.mu.Unlock()

	for _, h := range running {
		h.Cancel()
	}
	s.wg.Wait()
}

func (s *Simulator) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

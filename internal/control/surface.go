// Package control is the single surface the presentation layers (CLI, HTTP)
// drive: campaign selection, step edits, status changes and launches.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"outreach/internal/campaign"
	"outreach/internal/core"
	"outreach/internal/launch"
)

// ErrNoSelection is returned by Current when the store is empty.
var ErrNoSelection = errors.New("no campaign selected")

// Surface wraps a store and a simulator. It is safe for concurrent use.
type Surface struct {
	store    *campaign.Store
	sim      *launch.Simulator
	notifier core.Notifier
	logger   *zap.Logger

	mu       sync.RWMutex
	selected int // 0 = first campaign in the store
}

// Option configures a Surface.
type Option func(*Surface)

func WithNotifier(n core.Notifier) Option {
	return func(s *Surface) { s.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Surface) { s.logger = l }
}

// NewSurface creates a Surface over store and sim.
func NewSurface(store *campaign.Store, sim *launch.Simulator, opts ...Option) *Surface {
	s := &Surface{
		store:    store,
		sim:      sim,
		notifier: core.NopNotifier,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select makes id the current campaign.
func (s *Surface) Select(id int) error {
	if _, err := s.store.Get(id); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	return nil
}

// Current returns the selected campaign, defaulting to the first one.
func (s *Surface) Current() (campaign.Campaign, error) {
	s.mu.RLock()
	id := s.selected
	s.mu.RUnlock()

	if id != 0 {
		return s.store.Get(id)
	}
	list := s.store.List()
	if len(list) == 0 {
		return campaign.Campaign{}, ErrNoSelection
	}
	return list[0], nil
}

func (s *Surface) List() []campaign.Campaign {
	return s.store.List()
}

func (s *Surface) Get(id int) (campaign.Campaign, error) {
	return s.store.Get(id)
}

func (s *Surface) Create(name string, contacts int) (campaign.Campaign, error) {
	c, err := s.store.Create(name, contacts)
	if err != nil {
		return campaign.Campaign{}, err
	}
	s.logger.Info("Campaign created", zap.Int("campaign_id", c.ID), zap.String("campaign", c.Name))
	return c, nil
}

func (s *Surface) AddStep(id int, step campaign.Step) error {
	if err := s.store.AddStep(id, step); err != nil {
		return err
	}
	s.logger.Debug("Step added", zap.Int("campaign_id", id), zap.String("type", string(step.Type)))
	return nil
}

func (s *Surface) RemoveStep(id, index int) error {
	if err := s.store.RemoveStep(id, index); err != nil {
		return err
	}
	s.logger.Debug("Step removed", zap.Int("campaign_id", id), zap.Int("index", index))
	return nil
}

func (s *Surface) SetStatus(id int, status campaign.Status) error {
	if err := s.store.SetStatus(id, status); err != nil {
		return err
	}
	s.logger.Info("Campaign status changed", zap.Int("campaign_id", id), zap.String("status", string(status)))
	return nil
}

func (s *Surface) SetDelivery(id int, d campaign.Delivery) error {
	return s.store.SetDelivery(id, d)
}

func (s *Surface) History(id int) ([]campaign.Transition, error) {
	return s.store.History(id)
}

// Pause moves an Active campaign to Paused and emits an info notice.
func (s *Surface) Pause(id int) error {
	if err := s.SetStatus(id, campaign.StatusPaused); err != nil {
		return err
	}
	s.notifier.Notify(core.KindInfo, "Campaign paused")
	return nil
}

// Launch runs a launch of id and blocks until it ends. The simulator emits
// the outcome notification.
func (s *Surface) Launch(ctx context.Context, id, throttle int, onProgress core.ProgressFunc) error {
	return s.sim.Launch(ctx, id, throttle, onProgress)
}

// StartLaunch begins a launch of id without waiting for it.
func (s *Surface) StartLaunch(ctx context.Context, id, throttle int, onProgress core.ProgressFunc) (*launch.Handle, error) {
	return s.sim.Start(ctx, id, throttle, onProgress)
}

// LaunchCurrent launches the selected campaign.
func (s *Surface) LaunchCurrent(ctx context.Context, throttle int, onProgress core.ProgressFunc) error {
	c, err := s.Current()
	if err != nil {
		return err
	}
	return s.Launch(ctx, c.ID, throttle, onProgress)
}

// PauseCurrent pauses the selected campaign.
func (s *Surface) PauseCurrent() error {
	c, err := s.Current()
	if err != nil {
		return err
	}
	return s.Pause(c.ID)
}

// LaunchStatus returns the snapshot of a running or recent launch.
func (s *Surface) LaunchStatus(launchID string) (launch.Snapshot, error) {
	h, ok := s.sim.Lookup(launchID)
	if !ok {
		return launch.Snapshot{}, fmt.Errorf("launch %q: %w", launchID, launch.ErrUnknownLaunch)
	}
	return h.Snapshot(), nil
}

// CancelLaunch cancels a running launch. Cancelling a finished launch is a
// no-op.
func (s *Surface) CancelLaunch(launchID string) error {
	h, ok := s.sim.Lookup(launchID)
	if !ok {
		return fmt.Errorf("launch %q: %w", launchID, launch.ErrUnknownLaunch)
	}
	h.Cancel()
	return nil
}

func (s *Surface) Launches() []launch.Snapshot {
	return s.sim.Launches()
}

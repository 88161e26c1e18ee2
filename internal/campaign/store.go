package campaign

import (
	"fmt"
	"sync"

	"outreach/internal/core"
)

// Store is the authoritative, in-memory owner of all campaigns.
//
// Each campaign lives in its own entry with its own mutex, so mutations on
// one campaign never contend with another. The launching flag on an entry is
// the busy token: step edits, delivery edits, status changes and re-launches
// all check it.
type Store struct {
	mu       sync.RWMutex // guards order, entries and nextID
	order    []int
	entries  map[int]*entry
	nextID   int
	clock    core.Clock
	delivery Delivery
}

type entry struct {
	mu        sync.Mutex
	campaign  Campaign
	launching bool
	history   []Transition
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to timestamp status transitions.
func WithClock(clock core.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithDefaultDelivery sets the delivery settings Create gives new campaigns.
// Invalid settings are ignored.
func WithDefaultDelivery(d Delivery) Option {
	return func(s *Store) {
		if d = d.withDefaults(); d.Validate() == nil {
			s.delivery = d
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:  make(map[int]*entry),
		nextID:   1,
		clock:    core.RealClock{},
		delivery: DefaultDelivery(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts a fixture campaign as-is, keeping its id and status.
func (s *Store) Seed(c Campaign) error {
	c.Delivery = c.Delivery.withDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.Delivery.Validate(); err != nil {
		return fmt.Errorf("campaign %d: %w", c.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[c.ID]; exists {
		return fmt.Errorf("campaign %d: %w", c.ID, ErrDuplicateID)
	}
	s.entries[c.ID] = &entry{campaign: c.Clone()}
	s.order = append(s.order, c.ID)
	if c.ID >= s.nextID {
		s.nextID = c.ID + 1
	}
	return nil
}

// Create adds a new campaign in Draft with no steps.
func (s *Store) Create(name string, contacts int) (Campaign, error) {
	if name == "" {
		return Campaign{}, fmt.Errorf("campaign name is required")
	}
	if contacts < 0 {
		return Campaign{}, fmt.Errorf("contacts must be >= 0, got %d", contacts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := Campaign{
		ID:       s.nextID,
		Name:     name,
		Status:   StatusDraft,
		Contacts: contacts,
		Steps:    []Step{},
		Delivery: s.delivery,
	}
	s.nextID++
	s.entries[c.ID] = &entry{campaign: c}
	s.order = append(s.order, c.ID)
	return c.Clone(), nil
}

// List returns every campaign in insertion order.
func (s *Store) List() []Campaign {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.entries[id])
	}
	s.mu.RUnlock()

	out := make([]Campaign, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.campaign.Clone())
		e.mu.Unlock()
	}
	return out
}

// Get returns a copy of one campaign.
func (s *Store) Get(id int) (Campaign, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Campaign{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.campaign.Clone(), nil
}

// AddStep appends step to the end of the campaign's sequence.
func (s *Store) AddStep(id int, step Step) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.launching {
		return fmt.Errorf("add step to campaign %d: %w", id, ErrCampaignBusy)
	}
	if err := step.Validate(); err != nil {
		return fmt.Errorf("add step to campaign %d: %w", id, err)
	}
	e.campaign.Steps = append(e.campaign.Steps, step)
	return nil
}

// RemoveStep deletes the step at index, preserving the order of the rest.
func (s *Store) RemoveStep(id int, index int) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.launching {
		return fmt.Errorf("remove step from campaign %d: %w", id, ErrCampaignBusy)
	}
	steps := e.campaign.Steps
	if index < 0 || index >= len(steps) {
		return fmt.Errorf("remove step %d from campaign %d (len %d): %w", index, id, len(steps), ErrIndexOutOfRange)
	}
	next := make([]Step, 0, len(steps)-1)
	next = append(next, steps[:index]...)
	next = append(next, steps[index+1:]...)
	e.campaign.Steps = next
	return nil
}

// SetStatus applies a status transition. It is rejected with
// ErrCampaignBusy while a launch holds the campaign; a launch commits its
// own transition through CommitLaunch.
func (s *Store) SetStatus(id int, status Status) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.launching {
		return fmt.Errorf("set status of campaign %d: %w", id, ErrCampaignBusy)
	}
	return s.transition(e, id, status)
}

// transition applies and records a status change. Caller holds e.mu.
func (s *Store) transition(e *entry, id int, status Status) error {
	from := e.campaign.Status
	if err := checkTransition(from, status); err != nil {
		return fmt.Errorf("campaign %d: %w", id, err)
	}
	e.campaign.Status = status
	e.history = append(e.history, Transition{From: from, To: status, At: s.clock.Now()})
	return nil
}

// SetDelivery replaces the campaign's delivery settings.
func (s *Store) SetDelivery(id int, d Delivery) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("campaign %d: %w", id, err)
	}
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.launching {
		return fmt.Errorf("update delivery of campaign %d: %w", id, ErrCampaignBusy)
	}
	e.campaign.Delivery = d
	return nil
}

// History returns the status transitions applied since the campaign entered
// the store, oldest first.
func (s *Store) History(id int) ([]Transition, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Transition, len(e.history))
	copy(out, e.history)
	return out, nil
}

// BeginLaunch takes the campaign's busy token and records throttle as its
// delivery configuration. The returned copy is the step list the launch runs.
func (s *Store) BeginLaunch(id int, throttle int) (Campaign, error) {
	if err := ValidateThrottle(throttle); err != nil {
		return Campaign{}, fmt.Errorf("launch campaign %d: %w", id, err)
	}
	e, err := s.lookup(id)
	if err != nil {
		return Campaign{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.launching {
		return Campaign{}, fmt.Errorf("launch campaign %d: %w", id, ErrAlreadyLaunching)
	}
	if err := checkTransition(e.campaign.Status, StatusActive); err != nil {
		return Campaign{}, fmt.Errorf("launch campaign %d: %w", id, err)
	}
	e.launching = true
	e.campaign.Delivery.Throttle = throttle
	return e.campaign.Clone(), nil
}

// CommitLaunch moves a launching campaign to Active and releases the busy
// token in one step. It fails with ErrNotLaunching when no launch holds the
// token; on a transition error the token is kept for EndLaunch.
func (s *Store) CommitLaunch(id int) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.launching {
		return fmt.Errorf("commit launch of campaign %d: %w", id, ErrNotLaunching)
	}
	if err := s.transition(e, id, StatusActive); err != nil {
		return err
	}
	e.launching = false
	return nil
}

// EndLaunch releases the busy token. Unknown ids are ignored.
func (s *Store) EndLaunch(id int) {
	e, err := s.lookup(id)
	if err != nil {
		return
	}
	e.mu.Lock()
	e.launching = false
	e.mu.Unlock()
}

// Launching reports whether a launch holds the campaign's busy token.
func (s *Store) Launching(id int) bool {
	e, err := s.lookup(id)
	if err != nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.launching
}

// Len returns the number of campaigns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) lookup(id int) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("campaign %d: %w", id, ErrNotFound)
	}
	return e, nil
}

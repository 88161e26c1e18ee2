// Package campaign owns outreach campaigns: their ordered touch-point steps,
// delivery settings and lifecycle status.
package campaign

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a campaign.
type Status string

const (
	StatusDraft  Status = "Draft"
	StatusActive Status = "Active"
	StatusPaused Status = "Paused"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused:
		return true
	}
	return false
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// StepType is the channel a step is delivered through.
type StepType string

const (
	StepEmail            StepType = "email"
	StepLinkedInConnect  StepType = "linkedin_connect"
	StepLinkedInFollowup StepType = "linkedin_followup"
)

func (t StepType) Valid() bool {
	switch t {
	case StepEmail, StepLinkedInConnect, StepLinkedInFollowup:
		return true
	}
	return false
}

// Step is one touch-point of a campaign sequence.
type Step struct {
	Type    StepType `json:"type" yaml:"type"`
	Subject string   `json:"subject" yaml:"subject"`
	Delay   int      `json:"delay" yaml:"delay"` // days after the previous step
}

// Validate checks that the step is structurally sound.
func (s Step) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidStep, s.Type)
	}
	if s.Delay < 0 {
		return fmt.Errorf("%w: negative delay %d", ErrInvalidStep, s.Delay)
	}
	return nil
}

// SendWindow restricts the hours of the day messages may go out.
type SendWindow string

const (
	WindowBusiness SendWindow = "business" // 9-17
	WindowExtended SendWindow = "extended" // 8-20
	WindowAnytime  SendWindow = "anytime"
)

func (w SendWindow) Valid() bool {
	switch w {
	case WindowBusiness, WindowExtended, WindowAnytime:
		return true
	}
	return false
}

const (
	MinThrottle     = 10
	MaxThrottle     = 500
	DefaultThrottle = 150

	DefaultSendInterval = time.Minute
)

// ValidateThrottle checks a sends-per-day value against [MinThrottle, MaxThrottle].
func ValidateThrottle(throttle int) error {
	if throttle < MinThrottle || throttle > MaxThrottle {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidThrottle, throttle, MinThrottle, MaxThrottle)
	}
	return nil
}

// Delivery holds the delivery settings of a campaign. They are recorded
// configuration only; nothing in the engine paces real sends with them.
type Delivery struct {
	Throttle     int           `json:"throttle" yaml:"throttle"` // sends per day
	SendInterval time.Duration `json:"send_interval" yaml:"sendInterval"`
	Window       SendWindow    `json:"send_window" yaml:"sendWindow"`
}

// DefaultDelivery returns the settings a new campaign starts with.
func DefaultDelivery() Delivery {
	return Delivery{
		Throttle:     DefaultThrottle,
		SendInterval: DefaultSendInterval,
		Window:       WindowBusiness,
	}
}

func (d Delivery) withDefaults() Delivery {
	def := DefaultDelivery()
	if d.Throttle == 0 {
		d.Throttle = def.Throttle
	}
	if d.SendInterval == 0 {
		d.SendInterval = def.SendInterval
	}
	if d.Window == "" {
		d.Window = def.Window
	}
	return d
}

func (d Delivery) Validate() error {
	if err := ValidateThrottle(d.Throttle); err != nil {
		return err
	}
	if d.SendInterval < 0 {
		return fmt.Errorf("send interval must be >= 0, got %v", d.SendInterval)
	}
	if !d.Window.Valid() {
		return fmt.Errorf("unknown send window %q", d.Window)
	}
	return nil
}

// Campaign is an outreach sequence targeting a set of contacts.
type Campaign struct {
	ID       int      `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Status   Status   `json:"status" yaml:"status"`
	Contacts int      `json:"contacts" yaml:"contacts"`
	Sent     int      `json:"sent" yaml:"sent"`
	Opened   int      `json:"opened" yaml:"opened"`
	Replied  int      `json:"replied" yaml:"replied"`
	Steps    []Step   `json:"steps" yaml:"steps"`
	Delivery Delivery `json:"delivery" yaml:"delivery"`
}

// Clone returns a deep copy; callers never share the step slice with the store.
func (c Campaign) Clone() Campaign {
	out := c
	out.Steps = make([]Step, len(c.Steps))
	copy(out.Steps, c.Steps)
	return out
}

// Validate checks the fields a seeded campaign must satisfy.
func (c Campaign) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("campaign id must be > 0, got %d", c.ID)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("campaign %d: unknown status %q", c.ID, c.Status)
	}
	if c.Contacts < 0 || c.Sent < 0 || c.Opened < 0 || c.Replied < 0 {
		return fmt.Errorf("campaign %d: counters must be non-negative", c.ID)
	}
	for i, s := range c.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("campaign %d step %d: %w", c.ID, i, err)
		}
	}
	return nil
}

// Transition is one recorded status change.
type Transition struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

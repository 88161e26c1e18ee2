package core

import "errors"

// ErrSequenceComplete indicates the progress sequence already delivered its
// final value.
var ErrSequenceComplete = errors.New("progress sequence complete")

const (
	// DefaultProgressStep is the fixed increment between two ticks.
	DefaultProgressStep = 5
	// FinalProgress is the value of the last tick.
	FinalProgress = 100
)

// SequenceConfig controls the shape of a progress sequence.
type SequenceConfig struct {
	Step  int // increment per tick, defaults to DefaultProgressStep
	Final int // last value, defaults to FinalProgress
}

// Ticks returns the number of observations a full sequence delivers,
// including the initial 0.
func (c SequenceConfig) Ticks() int {
	c = c.withDefaults()
	return (c.Final+c.Step-1)/c.Step + 1
}

func (c SequenceConfig) withDefaults() SequenceConfig {
	if c.Step <= 0 {
		c.Step = DefaultProgressStep
	}
	if c.Final <= 0 {
		c.Final = FinalProgress
	}
	return c
}

// Sequence delivers the progress values 0, Step, 2*Step, ... Final to an
// observer, one per Tick call.
// A Sequence is NOT safe for concurrent use; each launch owns its own.
type Sequence struct {
	observer  ProgressFunc
	config    SequenceConfig
	next      int
	last      int
	delivered int
}

// NewSequence creates a Sequence for a single launch.
func NewSequence(observer ProgressFunc, config SequenceConfig) *Sequence {
	return &Sequence{
		observer: observer,
		config:   config.withDefaults(),
	}
}

// Tick delivers the next progress value.
// Returns nil on delivery or ErrSequenceComplete once Final was delivered.
func (s *Sequence) Tick() error {
	if s.Done() {
		return ErrSequenceComplete
	}

	value := s.next
	if value > s.config.Final {
		value = s.config.Final
	}
	if s.observer != nil {
		s.observer(value)
	}
	s.delivered++
	s.last = value
	s.next = value + s.config.Step
	return nil
}

// Delivered returns how many ticks have been observed.
func (s *Sequence) Delivered() int {
	return s.delivered
}

// Done returns true once the final value has been delivered.
func (s *Sequence) Done() bool {
	return s.delivered > 0 && s.last >= s.config.Final
}

// Last returns the most recently delivered value, or -1 before the first tick.
func (s *Sequence) Last() int {
	if s.delivered == 0 {
		return -1
	}
	return s.last
}

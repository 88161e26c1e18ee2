package activity

import (
	"time"

	"outreach/internal/core"
)

// Summary aggregates notices by kind.
type Summary struct {
	Total    int
	ByKind   map[core.Kind]int
	Launched int // success notices
	Failed   int // error notices
	First    time.Time
	Last     time.Time
	Window   time.Duration
	Dropped  int
}

// Summarize computes a Summary from notices. Pure function, no side effects.
func Summarize(notices []core.Notice, window time.Duration) *Summary {
	s := &Summary{
		ByKind: make(map[core.Kind]int),
		Window: window,
	}
	for _, n := range notices {
		s.Total++
		s.ByKind[n.Kind]++
		switch n.Kind {
		case core.KindSuccess:
			s.Launched++
		case core.KindError:
			s.Failed++
		}
		if s.First.IsZero() || n.Timestamp.Before(s.First) {
			s.First = n.Timestamp
		}
		if n.Timestamp.After(s.Last) {
			s.Last = n.Timestamp
		}
	}
	return s
}

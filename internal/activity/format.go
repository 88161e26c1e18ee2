package activity

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"outreach/internal/core"
)

// kindOrder fixes the order kinds are printed in.
var kindOrder = []core.Kind{core.KindSuccess, core.KindInfo, core.KindWarning, core.KindError}

var kindSymbols = map[core.Kind]string{
	core.KindSuccess: "✓",
	core.KindInfo:    "i",
	core.KindWarning: "!",
	core.KindError:   "✗",
}

// FormatText writes the feed in human-readable format.
func FormatText(w io.Writer, notices []core.Notice, s *Summary) {
	if s.Total == 0 {
		fmt.Fprintln(w, "No activity recorded")
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Outreach - Activity")
	fmt.Fprintln(w, "===================")
	fmt.Fprintln(w, "")
	for _, n := range notices {
		fmt.Fprintf(w, "  %s %s  %s\n", kindSymbols[n.Kind], n.Timestamp.Format(time.TimeOnly), n.Message)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Total:    %d\n", s.Total)
	fmt.Fprintf(w, "Launched: %d\n", s.Launched)
	fmt.Fprintf(w, "Failed:   %d\n", s.Failed)
	fmt.Fprintln(w, "By Kind:")
	for _, k := range kindOrder {
		if c := s.ByKind[k]; c > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", k, c)
		}
	}
	if s.Dropped > 0 {
		fmt.Fprintf(w, "Dropped:  %d\n", s.Dropped)
	}
}

// FormatJSON writes the feed in JSON format.
func FormatJSON(w io.Writer, notices []core.Notice, s *Summary) error {
	output := struct {
		Window   string            `json:"window"`
		Total    int               `json:"total"`
		Launched int               `json:"launched"`
		Failed   int               `json:"failed"`
		Dropped  int               `json:"dropped,omitempty"`
		ByKind   map[core.Kind]int `json:"byKind"`
		Notices  []core.Notice     `json:"notices"`
	}{
		Window:   s.Window.Round(time.Millisecond).String(),
		Total:    s.Total,
		Launched: s.Launched,
		Failed:   s.Failed,
		Dropped:  s.Dropped,
		ByKind:   s.ByKind,
		Notices:  notices,
	}
	if output.Notices == nil {
		output.Notices = []core.Notice{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

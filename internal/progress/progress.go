// Package progress renders launch progress on a terminal line.
package progress

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"outreach/internal/core"
)

const defaultRefresh = 200 * time.Millisecond

// Progress periodically redraws one status line covering every launch it
// observes, e.g. "[00:02] Launching campaign... 45%".
type Progress struct {
	startTime time.Time
	refresh   time.Duration
	ticker    *time.Ticker
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopped   atomic.Bool
	quiet     bool
	output    io.Writer
	mu        sync.Mutex
	launches  map[string]int
	order     []string
}

func NewProgress(quiet bool) *Progress {
	return &Progress{
		quiet:    quiet,
		refresh:  defaultRefresh,
		output:   os.Stderr,
		launches: make(map[string]int),
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// SetRefresh changes the redraw interval. Call before Start.
func (p *Progress) SetRefresh(d time.Duration) {
	if d > 0 {
		p.refresh = d
	}
}

// Observe returns a ProgressFunc that records progress for the named launch.
func (p *Progress) Observe(name string) core.ProgressFunc {
	p.mu.Lock()
	if _, ok := p.launches[name]; !ok {
		p.launches[name] = 0
		p.order = append(p.order, name)
	}
	p.mu.Unlock()

	return func(percent int) {
		p.mu.Lock()
		p.launches[name] = percent
		p.mu.Unlock()
	}
}

// Value returns the last progress recorded for name.
func (p *Progress) Value(name string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.launches[name]
	return v, ok
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.startTime = time.Now()
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.ticker = time.NewTicker(p.refresh)
	go p.run()
}

func (p *Progress) run() {
	defer close(p.doneCh)
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printProgress()
		}
	}
}

func (p *Progress) printProgress() {
	elapsed := time.Since(p.startTime).Round(time.Second)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.output, "\r\033[K[%02d:%02d] %s", mins, secs, p.line())
}

// line renders the status of every observed launch. Caller holds p.mu.
func (p *Progress) line() string {
	if len(p.order) == 1 {
		return fmt.Sprintf("Launching campaign... %d%%", p.launches[p.order[0]])
	}
	names := make([]string, len(p.order))
	copy(names, p.order)
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s %d%%", n, p.launches[n]))
	}
	return "Launching " + strings.Join(parts, " | ")
}

// Line returns the current status line without the elapsed-time prefix.
func (p *Progress) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
		<-p.doneCh
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K")
	p.mu.Unlock()
}

func (p *Progress) Print(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K%s\n", message)
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K"+format+"\n", args...)
	p.mu.Unlock()
}

// Notify prints notifications above the progress line, so Progress can act
// as the CLI's toast surface.
func (p *Progress) Notify(kind core.Kind, message string) {
	p.Printf("[%s] %s", kind, message)
}

package tui

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/maxvaer/dirscan/internal/engine"
)

// Progress prints a throttled one-line scan summary to stderr, grounded on
// the teacher's output.Progress bar but without a percentage/ETA: the
// recursion controller discovers new roots as it goes, so there is no
// fixed total to measure against the way a single flat wordlist scan has.
type Progress struct {
	quiet   bool
	mu      sync.Mutex
	visible bool
}

// NewProgress builds a Progress. quiet suppresses all output.
func NewProgress(quiet bool) *Progress {
	return &Progress{quiet: quiet}
}

// Update renders the latest snapshot. Safe to pass directly as a
// session.Session progress callback.
func (p *Progress) Update(snap engine.Progress) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	rate := 0.0
	if snap.Elapsed > 0 {
		rate = float64(snap.Completed) / snap.Elapsed.Seconds()
	}
	fmt.Fprintf(os.Stderr, "\r\033[K%d requests | %.0f req/s | %d errors | %s elapsed",
		snap.Completed, rate, snap.Errors, snap.Elapsed.Round(time.Second))
	p.visible = true
}

// Done terminates the progress line with a newline so subsequent output
// doesn't overwrite it.
func (p *Progress) Done() {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible {
		fmt.Fprint(os.Stderr, "\n")
		p.visible = false
	}
}

package engine

import (
	"sync"
	"time"
)

// Pauser is a cooperative pause/resume gate for the worker pool driving a
// scan root. When paused, Wait blocks callers until Toggle resumes the
// scan; otherwise Wait returns immediately. A single Pauser is shared
// across every recursion root's worker pool (internal/engine/pool.go), so
// a pause mid-scan suspends both the active root and every root still
// queued behind it.
type Pauser struct {
	mu          sync.Mutex
	cond        *sync.Cond
	paused      bool
	pausedSince time.Time
	totalPaused time.Duration
	pauseCount  int
}

// NewPauser returns a Pauser in the running state.
func NewPauser() *Pauser {
	p := &Pauser{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Wait blocks while the scan is paused.
func (p *Pauser) Wait() {
	p.mu.Lock()
	for p.paused {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Toggle flips between paused and running, returning the new paused state.
func (p *Pauser) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.totalPaused += time.Since(p.pausedSince)
		p.paused = false
		p.cond.Broadcast()
	} else {
		p.paused = true
		p.pausedSince = time.Now()
		p.pauseCount++
	}
	return p.paused
}

// PauseCount returns how many times the scan has been paused, so a final
// report can distinguish "paused once for ten minutes" from "paused ten
// times for a minute each".
func (p *Pauser) PauseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pauseCount
}

// ActiveDuration subtracts the accumulated pause time from total, so
// throughput figures (requests/sec) reflect only the time workers were
// actually allowed to run.
func (p *Pauser) ActiveDuration(total time.Duration) time.Duration {
	active := total - p.PausedDuration()
	if active < 0 {
		return 0
	}
	return active
}

// IsPaused reports whether the scan is currently paused.
func (p *Pauser) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// PausedDuration returns the accumulated pause time, including any pause in
// progress.
func (p *Pauser) PausedDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.totalPaused
	if p.paused {
		d += time.Since(p.pausedSince)
	}
	return d
}

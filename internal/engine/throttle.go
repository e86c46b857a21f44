package engine

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	throttleMinStep = 500 * time.Millisecond
	throttleMax     = 30 * time.Second
)

// Throttle adapts a shared rate.Limiter's interval in response to 429/503
// responses and repeated transport errors, independent of the per-request
// retry backoff inside the probe client. It doubles the delay on a throttle
// signal and halves it back toward the floor once responses are healthy
// again.
type Throttle struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	floor       time.Duration
	current     time.Duration
	consecutive int
	enabled     bool
	onAdjust    func(delay time.Duration, reason string)
}

// NewThrottle wires a Throttle to limiter, whose rate it will adjust.
// floor is the delay to settle back to once the target recovers; a floor of
// zero means "as fast as possible" when healthy.
func NewThrottle(limiter *rate.Limiter, floor time.Duration, enabled bool) *Throttle {
	return &Throttle{
		limiter: limiter,
		floor:   floor,
		current: floor,
		enabled: enabled,
	}
}

// OnAdjust registers fn to be called whenever the throttle changes the
// active delay, with a short reason ("backoff" or "recover").
func (t *Throttle) OnAdjust(fn func(delay time.Duration, reason string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAdjust = fn
}

// RecordStatus updates the throttle based on a completed request's status
// code.
func (t *Throttle) RecordStatus(status int) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if status == 429 || status == 503 {
		t.consecutive++
		t.backoff()
		return
	}
	t.recover()
}

// RecordError flags a transport error as a possible rate-limit signal; three
// in a row trigger the same backoff as an explicit 429/503.
func (t *Throttle) RecordError() {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive++
	if t.consecutive >= 3 {
		t.backoff()
	}
}

func (t *Throttle) backoff() {
	next := t.current * 2
	if next < throttleMinStep {
		next = throttleMinStep
	}
	if next > throttleMax {
		next = throttleMax
	}
	t.apply(next, "backoff")
}

func (t *Throttle) recover() {
	if t.consecutive == 0 {
		return
	}
	t.consecutive = 0
	next := t.current / 2
	if next < t.floor {
		next = t.floor
	}
	t.apply(next, "recover")
}

func (t *Throttle) apply(next time.Duration, reason string) {
	if next == t.current {
		return
	}
	t.current = next
	if t.onAdjust != nil {
		t.onAdjust(next, reason)
	}
	if t.limiter == nil {
		return
	}
	if next <= 0 {
		t.limiter.SetLimit(rate.Inf)
		return
	}
	t.limiter.SetLimit(rate.Every(next))
}

// Current returns the active per-request delay.
func (t *Throttle) Current() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

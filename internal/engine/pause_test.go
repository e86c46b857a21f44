package engine

import (
	"testing"
	"time"
)

func TestPauserToggleBlocksAndReleases(t *testing.T) {
	p := NewPauser()
	if p.IsPaused() {
		t.Fatal("expected to start running")
	}

	if !p.Toggle() {
		t.Fatal("expected Toggle to report paused")
	}
	if !p.IsPaused() {
		t.Fatal("expected IsPaused true after pausing")
	}

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while still paused")
	case <-time.After(30 * time.Millisecond):
	}

	if p.Toggle() {
		t.Fatal("expected Toggle to report running")
	}

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Wait did not unblock after resume")
	}
}

func TestPauserAccumulatesPausedDuration(t *testing.T) {
	p := NewPauser()
	p.Toggle()
	time.Sleep(20 * time.Millisecond)
	p.Toggle()
	if p.PausedDuration() < 20*time.Millisecond {
		t.Errorf("expected at least 20ms paused, got %s", p.PausedDuration())
	}
}

func TestPauserCountsEachPause(t *testing.T) {
	p := NewPauser()
	p.Toggle()
	p.Toggle()
	p.Toggle()
	p.Toggle()
	if p.PauseCount() != 2 {
		t.Errorf("expected 2 pauses counted, got %d", p.PauseCount())
	}
}

func TestActiveDurationExcludesPausedTime(t *testing.T) {
	p := NewPauser()
	p.Toggle()
	time.Sleep(20 * time.Millisecond)
	p.Toggle()

	total := 100 * time.Millisecond
	active := p.ActiveDuration(total)
	if active > total-15*time.Millisecond {
		t.Errorf("expected ActiveDuration to subtract the paused time, got %s of %s", active, total)
	}
}

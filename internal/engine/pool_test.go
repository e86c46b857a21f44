package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

type stubFetcher struct {
	calls int32
	fn    func(path string) (*scanmodel.Response, *scanmodel.ProbeError)
}

func (s *stubFetcher) Fetch(ctx context.Context, path string) (*scanmodel.Response, *scanmodel.ProbeError) {
	atomic.AddInt32(&s.calls, 1)
	return s.fn(path)
}

func candidates(paths ...string) []scanmodel.Candidate {
	out := make([]scanmodel.Candidate, len(paths))
	for i, p := range paths {
		out[i] = scanmodel.Candidate{Path: p, Origin: scanmodel.OriginWord}
	}
	return out
}

func TestRunPoolProcessesAllCandidates(t *testing.T) {
	f := &stubFetcher{fn: func(path string) (*scanmodel.Response, *scanmodel.ProbeError) {
		return &scanmodel.Response{FinalURL: "http://x/" + path, StatusCode: 200}, nil
	}}

	results := runPool(context.Background(), f, candidates("a", "b", "c", "d"), 2, nil, nil)

	seen := make(map[string]bool)
	for r := range results {
		seen[r.Candidate.Path] = true
	}
	for _, p := range []string{"a", "b", "c", "d"} {
		if !seen[p] {
			t.Errorf("expected candidate %q to be processed", p)
		}
	}
}

func TestRunPoolStopsOnCancellation(t *testing.T) {
	block := make(chan struct{})
	f := &stubFetcher{fn: func(path string) (*scanmodel.Response, *scanmodel.ProbeError) {
		<-block
		return nil, &scanmodel.ProbeError{Kind: scanmodel.ErrCancelled}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	results := runPool(ctx, f, candidates("a", "b", "c"), 1, nil, nil)

	cancel()
	close(block)

	count := 0
	for range results {
		count++
	}
	if count > 3 {
		t.Errorf("expected at most the dispatched candidates, got %d", count)
	}
}

func TestRunPoolHonorsPauser(t *testing.T) {
	var calls int32
	f := &stubFetcher{fn: func(path string) (*scanmodel.Response, *scanmodel.ProbeError) {
		atomic.AddInt32(&calls, 1)
		return &scanmodel.Response{StatusCode: 200}, nil
	}}

	p := NewPauser()
	p.Toggle() // start paused

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	results := runPool(ctx, f, candidates("a"), 1, nil, p)

	select {
	case <-results:
		t.Fatal("expected no result while paused")
	case <-time.After(30 * time.Millisecond):
	}

	p.Toggle()
	select {
	case r, ok := <-results:
		if ok && r.Candidate.Path != "a" {
			t.Errorf("unexpected candidate %q", r.Candidate.Path)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected result after resuming")
	}
}

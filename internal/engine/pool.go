// Package engine drives the concurrent worker pool and recursion controller
// (components C5 and C6): candidates for a single scan root are fanned out
// across a bounded pool of workers, each probed response is pushed through
// the classifier, and directories discovered along the way are queued for
// the next recursion depth.
package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// Fetcher is the subset of probe.Client the pool needs.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*scanmodel.Response, *scanmodel.ProbeError)
}

// probeResult pairs a dispatched candidate with what came back for it.
type probeResult struct {
	Candidate scanmodel.Candidate
	Response  *scanmodel.Response
	Err       *scanmodel.ProbeError
}

// runPool fans candidates out across threads workers, honoring limiter (may
// be nil) for inter-request pacing and pauser for cooperative pause/resume.
// The returned channel is closed once every candidate has been processed or
// ctx is cancelled.
func runPool(ctx context.Context, fetcher Fetcher, candidates []scanmodel.Candidate, threads int, limiter *rate.Limiter, pauser *Pauser) <-chan probeResult {
	if threads < 1 {
		threads = 1
	}

	work := make(chan scanmodel.Candidate, threads*2)
	results := make(chan probeResult, threads*2)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(work)
		for _, c := range candidates {
			select {
			case work <- c:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < threads; i++ {
		g.Go(func() error {
			for candidate := range work {
				if pauser != nil {
					pauser.Wait()
				}
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						return nil
					}
				}
				if gctx.Err() != nil {
					return nil
				}

				resp, perr := fetcher.Fetch(gctx, candidate.Path)
				select {
				case results <- probeResult{Candidate: candidate, Response: resp, Err: perr}:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	return results
}

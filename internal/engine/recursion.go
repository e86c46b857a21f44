package engine

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/maxvaer/dirscan/internal/classify"
	"github.com/maxvaer/dirscan/internal/probe"
	"github.com/maxvaer/dirscan/internal/scanmodel"
	"github.com/maxvaer/dirscan/internal/wildcard"
)

// RootState tags where a recursion root currently sits in its lifecycle.
type RootState int

const (
	RootQueued RootState = iota
	RootProbing
	RootScanning
	RootDone
)

// Progress is a throttled snapshot handed to the progress callback: at most
// once every 250ms, or every 50 completed requests, whichever comes first.
type Progress struct {
	Completed int64
	Errors    int64
	Elapsed   time.Duration
}

// Callbacks are the session's hooks into a running scan. Any of them may be
// nil. OnProbed fires once per candidate regardless of outcome (error,
// filtered, or found), so a caller can track "this path has been
// attempted" independent of whether it was worth reporting.
type Callbacks struct {
	OnProgress         func(Progress)
	OnProbed           func(scanmodel.ScanRoot, scanmodel.Candidate)
	OnResult           func(*scanmodel.Finding)
	OnError            func(scanmodel.Candidate, *scanmodel.ProbeError)
	OnRootState        func(scanmodel.ScanRoot, RootState)
	OnWildcardDetected func(scanmodel.ScanRoot)
}

// Options configures a single Run invocation.
type Options struct {
	Client         *probe.Client
	Req            *scanmodel.ScanRequest
	BaseCandidates []scanmodel.Candidate
	Limiter        *rate.Limiter
	Throttle       *Throttle
	Pauser         *Pauser
	Callbacks      Callbacks

	// CandidateFilter, when set, is consulted once per candidate for every
	// recursion root (not just the initial one), so a resumed scan can skip
	// a (root, path) pair it already completed without also skipping that
	// same wordlist word under a root discovered later in the same run.
	CandidateFilter func(root scanmodel.ScanRoot, path string) bool
}

// Run drives the FIFO recursion queue: the initial root is scanned, and any
// directory finding discovered below the configured depth is appended to
// the same queue rather than recursed into via a function call, so depth is
// bounded by queue draining instead of by the call stack. It returns every
// finding collected across all roots and the aggregated stats; the caller
// fills in Stats.StartTime/EndTime/Duration/RequestsPerSecond.
func Run(ctx context.Context, root scanmodel.ScanRoot, opts Options) ([]*scanmodel.Finding, scanmodel.Stats, error) {
	queue := []scanmodel.ScanRoot{root}
	visitedRoots := map[string]bool{normalizeRoot(root.URL): true}
	var findings []*scanmodel.Finding
	var stats scanmodel.Stats

	progress := newProgressThrottle(opts.Callbacks.OnProgress)

	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}

		current := queue[0]
		queue = queue[1:]

		setRootState(opts.Callbacks, current, RootProbing)

		rootClient, err := opts.Client.WithBase(current.URL)
		if err != nil {
			continue
		}

		var predicate wildcard.Predicate = wildcard.Disabled{}
		if opts.Req.DetectWildcards {
			predicate = wildcard.Detect(ctx, rootClient, opts.Req.Extensions)
			if d, ok := predicate.(wildcard.Detected); ok && d.Detected() && opts.Callbacks.OnWildcardDetected != nil {
				opts.Callbacks.OnWildcardDetected(current)
			}
		}

		setRootState(opts.Callbacks, current, RootScanning)
		classifier := classify.New(opts.Req, predicate, current)

		candidates := opts.BaseCandidates
		if opts.CandidateFilter != nil {
			kept := make([]scanmodel.Candidate, 0, len(candidates))
			for _, c := range candidates {
				if opts.CandidateFilter(current, c.Path) {
					kept = append(kept, c)
				}
			}
			candidates = kept
		}

		results := runPool(ctx, rootClient, candidates, opts.Req.Threads, opts.Limiter, opts.Pauser)

		var newRoots []scanmodel.ScanRoot
		for r := range results {
			stats.TotalRequests++
			if opts.Callbacks.OnProbed != nil {
				opts.Callbacks.OnProbed(current, r.Candidate)
			}

			if r.Err != nil {
				stats.Errors++
				if opts.Throttle != nil {
					opts.Throttle.RecordError()
				}
				progress.tick(stats.TotalRequests, stats.Errors, true)
				if opts.Callbacks.OnError != nil {
					opts.Callbacks.OnError(r.Candidate, r.Err)
				}
				continue
			}

			if opts.Throttle != nil {
				opts.Throttle.RecordStatus(r.Response.StatusCode)
			}
			progress.tick(stats.TotalRequests, stats.Errors, true)

			finding, ok := classifier.Classify(r.Response, r.Candidate.Path)
			if !ok {
				continue
			}
			stats.FoundPaths++
			findings = append(findings, finding)
			if opts.Callbacks.OnResult != nil {
				opts.Callbacks.OnResult(finding)
			}

			if opts.Req.Recursive && finding.IsDirectory && current.Depth < opts.Req.EffectiveRecursionDepth() {
				rootURL := strings.TrimRight(finding.URL, "/")
				if key := normalizeRoot(rootURL); !visitedRoots[key] {
					visitedRoots[key] = true
					newRoots = append(newRoots, scanmodel.ScanRoot{
						URL:   rootURL,
						Depth: current.Depth + 1,
					})
				}
			}
		}

		queue = append(queue, newRoots...)
		setRootState(opts.Callbacks, current, RootDone)
	}

	return findings, stats, ctx.Err()
}

// normalizeRoot collapses a trailing-slash/no-trailing-slash and
// case-insensitive-scheme/host difference so the same directory reached
// through two different candidates (a 301-to-slash vs. a direct 200) is
// only ever queued once.
func normalizeRoot(rootURL string) string {
	return strings.ToLower(strings.TrimRight(rootURL, "/"))
}

func setRootState(cb Callbacks, root scanmodel.ScanRoot, state RootState) {
	if cb.OnRootState != nil {
		cb.OnRootState(root, state)
	}
}

// progressThrottle fires its callback at most once per 250ms or once every
// 50 completions, whichever comes first, so progress UIs aren't flooded on
// a fast local target.
type progressThrottle struct {
	cb        func(Progress)
	start     time.Time
	lastFired time.Time
	lastCount int64
}

func newProgressThrottle(cb func(Progress)) *progressThrottle {
	now := time.Now()
	return &progressThrottle{cb: cb, start: now, lastFired: now}
}

func (p *progressThrottle) tick(completed, errors int64, _ bool) {
	if p.cb == nil {
		return
	}
	now := time.Now()
	if now.Sub(p.lastFired) < 250*time.Millisecond && completed-p.lastCount < 50 {
		return
	}
	p.lastFired = now
	p.lastCount = completed
	p.cb(Progress{Completed: completed, Errors: errors, Elapsed: now.Sub(p.start)})
}

// Package session is the scan façade (component C7): it wires path
// generation, the HTTP probe client, wildcard detection, classification,
// and the concurrency/recursion engine into a single Execute call, and
// layers content-crawling passes on top once the main scan settles.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/maxvaer/dirscan/internal/crawl"
	"github.com/maxvaer/dirscan/internal/engine"
	"github.com/maxvaer/dirscan/internal/pathgen"
	"github.com/maxvaer/dirscan/internal/probe"
	"github.com/maxvaer/dirscan/internal/scanlog"
	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// Session executes one ScanRequest against one target. It is not reusable
// across requests; build a new Session per scan.
type Session struct {
	req *scanmodel.ScanRequest
	log scanlog.Logger

	mu              sync.Mutex
	progressCB      func(engine.Progress)
	probedCB        func(scanmodel.ScanRoot, scanmodel.Candidate)
	resultCB        func(*scanmodel.Finding)
	errorCB         func(scanmodel.Candidate, *scanmodel.ProbeError)
	candidateFilter func(root scanmodel.ScanRoot, path string) bool

	pauser   *engine.Pauser
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// New builds a Session for req. log may be scanlog.Nop() if the caller
// wants no diagnostic output.
func New(req *scanmodel.ScanRequest, log scanlog.Logger) *Session {
	return &Session{
		req:    req,
		log:    log,
		pauser: engine.NewPauser(),
	}
}

// SetProgressCallback registers fn to receive throttled progress snapshots.
func (s *Session) SetProgressCallback(fn func(engine.Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressCB = fn
}

// SetCandidateFilter registers keep, consulted once per candidate for
// every recursion root (the initial target and every directory discovered
// below it); a candidate is dropped for that root when keep returns false.
// Used to skip (root, path) pairs a resumed scan already completed,
// without also skipping that same wordlist word under a root discovered
// later in the same run.
func (s *Session) SetCandidateFilter(keep func(root scanmodel.ScanRoot, path string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidateFilter = keep
}

// SetProbedCallback registers fn to receive every candidate, together with
// the recursion root it was probed under, once it has been probed —
// regardless of whether it was classified as a finding, filtered out, or
// errored. Useful for resume checkpointing, which needs to know "this
// (root, path) pair was attempted" independent of "this path was found".
func (s *Session) SetProbedCallback(fn func(scanmodel.ScanRoot, scanmodel.Candidate)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probedCB = fn
}

// SetResultCallback registers fn to receive each Finding as it's classified.
func (s *Session) SetResultCallback(fn func(*scanmodel.Finding)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultCB = fn
}

// SetErrorCallback registers fn to receive each probe error.
func (s *Session) SetErrorCallback(fn func(scanmodel.Candidate, *scanmodel.ProbeError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCB = fn
}

// Pauser exposes the cooperative pause gate so a terminal UI can toggle it
// in response to a keypress without the session needing to know about
// terminals at all.
func (s *Session) Pauser() *engine.Pauser { return s.pauser }

// Stop cancels an in-flight Execute. Safe to call multiple times and safe
// to call before Execute (the cancellation is observed on the next
// ctx.Done() check).
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	})
}

// Execute runs the full scan pipeline against s.req and returns the
// aggregated ScanResponse. It returns a wrapped scanmodel.ErrMalformedInput
// if req fails validation before any request is issued.
func (s *Session) Execute(ctx context.Context) (*scanmodel.ScanResponse, error) {
	if err := s.req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	baseCandidates, err := pathgen.Generate(s.req.WordlistPath, s.req.AdditionalWordlists, s.req.Extensions, s.req.ForceExtensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scanmodel.ErrMalformedInput, err)
	}

	client, err := probe.NewClient(probe.Options{
		BaseURL:         s.req.BaseURL,
		Timeout:         s.req.Timeout,
		FollowRedirects: s.req.FollowRedirects,
		Headers:         s.req.Headers,
		UserAgent:       s.req.UserAgent,
		RandomUA:        s.req.RandomUA,
		Proxy:           s.req.Proxy,
		MaxRetries:      s.req.MaxRetries,
		Threads:         s.req.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scanmodel.ErrMalformedInput, err)
	}

	limiter := engine.NewLimiter(s.req)
	throttle := engine.NewThrottle(limiter, s.req.Delay, s.req.AdaptiveThrottle)
	throttle.OnAdjust(func(delay time.Duration, reason string) {
		s.log.ThrottleAdjusted(delay, reason)
	})

	start := time.Now()
	s.log.ScanStarted(s.req.BaseURL, len(baseCandidates), client.UserAgent())

	findings, stats, _ := engine.Run(ctx, scanmodel.ScanRoot{URL: trimSlash(s.req.BaseURL), Depth: 0}, engine.Options{
		Client:          client,
		Req:             s.req,
		BaseCandidates:  baseCandidates,
		Limiter:         limiter,
		Throttle:        throttle,
		Pauser:          s.pauser,
		Callbacks:       s.callbacks(),
		CandidateFilter: s.candidateFilterFunc(),
	})

	if s.req.Crawl && ctx.Err() == nil {
		crawled, crawlStats := s.runCrawlPasses(ctx, client, limiter, throttle, findings)
		findings = append(findings, crawled...)
		stats.TotalRequests += crawlStats.TotalRequests
		stats.FoundPaths += crawlStats.FoundPaths
		stats.Errors += crawlStats.Errors
	}

	stats.StartTime = start
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(start)
	stats.PausedDuration = s.pauser.PausedDuration()
	stats.PauseCount = s.pauser.PauseCount()
	if active := s.pauser.ActiveDuration(stats.Duration); active > 0 {
		stats.RequestsPerSecond = float64(stats.TotalRequests) / active.Seconds()
	}
	s.log.ScanFinished(stats)

	resp := &scanmodel.ScanResponse{
		TargetURL: s.req.BaseURL,
		Stats:     stats,
	}
	for _, f := range findings {
		resp.Findings = append(resp.Findings, *f)
	}

	if ctx.Err() != nil {
		return resp, ctx.Err()
	}
	return resp, nil
}

// candidateFilterFunc snapshots the registered filter under lock, matching
// the rest of this package's callback-snapshot pattern.
func (s *Session) candidateFilterFunc() func(scanmodel.ScanRoot, string) bool {
	s.mu.Lock()
	filter := s.candidateFilter
	s.mu.Unlock()
	return filter
}

func (s *Session) callbacks() engine.Callbacks {
	return engine.Callbacks{
		OnProgress: func(p engine.Progress) {
			s.mu.Lock()
			cb := s.progressCB
			s.mu.Unlock()
			if cb != nil {
				cb(p)
			}
		},
		OnProbed: func(root scanmodel.ScanRoot, c scanmodel.Candidate) {
			s.mu.Lock()
			cb := s.probedCB
			s.mu.Unlock()
			if cb != nil {
				cb(root, c)
			}
		},
		OnResult: func(f *scanmodel.Finding) {
			s.mu.Lock()
			cb := s.resultCB
			s.mu.Unlock()
			if cb != nil {
				cb(f)
			}
		},
		OnError: func(c scanmodel.Candidate, perr *scanmodel.ProbeError) {
			s.log.ProbeError(c.Path, perr)
			s.mu.Lock()
			cb := s.errorCB
			s.mu.Unlock()
			if cb != nil {
				cb(c, perr)
			}
		},
		OnRootState: func(root scanmodel.ScanRoot, state engine.RootState) {
			s.log.RootStateChanged(root, rootStateLabel(state))
		},
		OnWildcardDetected: func(root scanmodel.ScanRoot) {
			s.log.WildcardDetected(root)
		},
	}
}

// runCrawlPasses re-fetches HTML findings to recover their bodies (the
// engine clears Response.Body once a Finding is built, to keep memory flat
// across a large scan), extracts same-origin links, and scans whatever
// wasn't already covered. Each pass only follows links discovered in the
// previous one, up to req.CrawlDepth hops.
func (s *Session) runCrawlPasses(ctx context.Context, client *probe.Client, limiter *rate.Limiter, throttle *engine.Throttle, seedFindings []*scanmodel.Finding) ([]*scanmodel.Finding, scanmodel.Stats) {
	var allNew []*scanmodel.Finding
	var stats scanmodel.Stats

	seen := make([]scanmodel.Candidate, 0, len(seedFindings))
	for _, f := range seedFindings {
		seen = append(seen, scanmodel.Candidate{Path: f.Path})
	}

	frontier := seedFindings
	for depth := 1; depth <= s.req.CrawlDepth && len(frontier) > 0; depth++ {
		var freshRaw []scanmodel.Candidate
		for _, f := range frontier {
			if ctx.Err() != nil {
				return allNew, stats
			}
			if !strings.HasPrefix(f.ContentType, "text/html") {
				continue
			}
			resp, perr := client.Fetch(ctx, f.Path)
			stats.TotalRequests++
			if perr != nil || resp == nil {
				stats.Errors++
				continue
			}
			for _, p := range crawl.ExtractPaths(resp.Body, s.req.BaseURL) {
				freshRaw = append(freshRaw, scanmodel.Candidate{Path: p, Origin: scanmodel.OriginCrawled})
			}
		}

		if len(freshRaw) == 0 {
			break
		}

		merged, err := pathgen.Dedup(seen, freshRaw)
		if err != nil {
			break
		}
		cands := merged[len(seen):]
		if len(cands) == 0 {
			break
		}
		seen = merged

		findings, passStats, err := engine.Run(ctx, scanmodel.ScanRoot{URL: trimSlash(s.req.BaseURL), Depth: 0}, engine.Options{
			Client:          client,
			Req:             s.req,
			BaseCandidates:  cands,
			Limiter:         limiter,
			Throttle:        throttle,
			Pauser:          s.pauser,
			Callbacks:       s.callbacks(),
			CandidateFilter: s.candidateFilterFunc(),
		})
		if err != nil && ctx.Err() != nil {
			return append(allNew, findings...), stats
		}
		stats.TotalRequests += passStats.TotalRequests
		stats.FoundPaths += passStats.FoundPaths
		stats.Errors += passStats.Errors

		allNew = append(allNew, findings...)
		frontier = findings
	}

	return allNew, stats
}

func trimSlash(u string) string {
	return strings.TrimRight(u, "/")
}

// BuildDirectoryTree assembles the directories discovered across findings
// (including recursion roots) into a scanmodel.Tree value, leaving
// rendering — text, JSON, or anything else — to whatever report
// collaborator walks it.
func (s *Session) BuildDirectoryTree(findings []scanmodel.Finding) *scanmodel.Tree {
	var dirs []string
	for _, f := range findings {
		if f.IsDirectory {
			dirs = append(dirs, strings.Trim(f.Path, "/"))
		}
	}
	sort.Strings(dirs)

	root := &scanmodel.Tree{Name: "/"}
	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		node := root
		for _, part := range strings.Split(d, "/") {
			node = treeChild(node, part)
		}
	}
	return root
}

func treeChild(n *scanmodel.Tree, name string) *scanmodel.Tree {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	child := &scanmodel.Tree{Name: name}
	n.Children = append(n.Children, child)
	return child
}

func rootStateLabel(s engine.RootState) string {
	switch s {
	case engine.RootQueued:
		return "queued"
	case engine.RootProbing:
		return "probing"
	case engine.RootScanning:
		return "scanning"
	case engine.RootDone:
		return "done"
	default:
		return "unknown"
	}
}

// Package scanmodel holds the data types shared by every component of the
// scan engine (path generation, probing, wildcard detection, classification,
// the worker pool and the session façade), so that none of those packages
// needs to import another to see the shapes they pass around.
package scanmodel

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ScanRequest is the immutable input to a scan session.
type ScanRequest struct {
	BaseURL              string
	WordlistPath         string
	AdditionalWordlists  []string
	Extensions           []string
	ForceExtensions      bool
	Threads              int
	Timeout              time.Duration
	Delay                time.Duration
	UserAgent            string
	RandomUA             bool
	FollowRedirects      bool
	Headers              *HeaderSet
	Proxy                string
	MaxRetries           int
	ExcludeStatus        map[int]struct{}
	IncludeStatus        map[int]struct{}
	Recursive            bool
	RecursionDepth       int // 0 = unlimited, capped at HardRecursionCap
	DetectWildcards      bool
	Crawl                bool
	CrawlDepth           int
	AdaptiveThrottle     bool
}

// HardRecursionCap is the safety ceiling applied when RecursionDepth is 0
// ("unlimited"), per the recursion controller's invariant.
const HardRecursionCap = 8

// DefaultUserAgent is sent when neither UserAgent nor RandomUA is set.
const DefaultUserAgent = "Mozilla/5.0 (compatible; Dirsearch-MCP/1.0)"

// Validate enforces the request invariants before any I/O happens. A
// failure here is a MalformedInput error: the whole session aborts before
// issuing a single request.
func (r *ScanRequest) Validate() error {
	if r.Threads < 1 {
		return fmt.Errorf("%w: thread count must be >= 1, got %d", ErrMalformedInput, r.Threads)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0, got %s", ErrMalformedInput, r.Timeout)
	}
	if r.RecursionDepth < 0 {
		return fmt.Errorf("%w: recursion depth must be >= 0, got %d", ErrMalformedInput, r.RecursionDepth)
	}
	if strings.TrimSpace(r.BaseURL) == "" {
		return fmt.Errorf("%w: base URL is required", ErrMalformedInput)
	}
	return nil
}

// EffectiveRecursionDepth resolves the "0 = unlimited" convention into the
// concrete depth the recursion controller should respect.
func (r *ScanRequest) EffectiveRecursionDepth() int {
	if r.RecursionDepth == 0 {
		return HardRecursionCap
	}
	if r.RecursionDepth > HardRecursionCap {
		return HardRecursionCap
	}
	return r.RecursionDepth
}

// StatusAllowed applies the include/exclude precedence rule: a non-empty
// include set supersedes exclude for its members; otherwise exclude (with a
// default of 404) governs.
func (r *ScanRequest) StatusAllowed(status int) bool {
	if len(r.IncludeStatus) > 0 {
		_, ok := r.IncludeStatus[status]
		return ok
	}
	exclude := r.ExcludeStatus
	if len(exclude) == 0 {
		return status != 404
	}
	_, excluded := exclude[status]
	return !excluded
}

// ErrMalformedInput tags request- or wordlist-shaped errors that fail the
// whole session before any I/O, per the error taxonomy.
var ErrMalformedInput = errors.New("malformed input")

// ErrInternal tags invariant violations detected mid-scan.
var ErrInternal = errors.New("internal scan error")

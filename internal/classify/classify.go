// Package classify applies status filtering, wildcard rejection and
// directory derivation to turn a probed Response into a Finding, or
// nothing (component C4).
package classify

import (
	"net/url"
	"strings"
	"sync"

	"github.com/maxvaer/dirscan/internal/scanmodel"
	"github.com/maxvaer/dirscan/internal/wildcard"
)

// Classifier decides, for a candidate's Response, whether it becomes a
// Finding. One Classifier is constructed per scan root so the wildcard
// Predicate and dedup set stay correctly scoped.
type Classifier struct {
	req       *scanmodel.ScanRequest
	predicate wildcard.Predicate
	root      scanmodel.ScanRoot

	mu   sync.Mutex
	seen map[string]struct{} // (url, status) dedup, defends against races
}

// New builds a Classifier for root, using predicate as the current
// wildcard fingerprint (already published, read-only from here on).
func New(req *scanmodel.ScanRequest, predicate wildcard.Predicate, root scanmodel.ScanRoot) *Classifier {
	if predicate == nil {
		predicate = wildcard.Disabled{}
	}
	return &Classifier{
		req:       req,
		predicate: predicate,
		root:      root,
		seen:      make(map[string]struct{}),
	}
}

// Classify turns a probed Response for the candidate at path into a
// Finding, or returns (nil, false) when the response is filtered out or is
// a duplicate of an already-classified (url, status) pair. Transport
// errors never reach here: probe.Client.Fetch reports them through its own
// ProbeError return, which the caller counts before classification runs.
func (c *Classifier) Classify(resp *scanmodel.Response, path string) (*scanmodel.Finding, bool) {
	if resp == nil {
		return nil, false
	}

	if !c.req.StatusAllowed(resp.StatusCode) {
		return nil, false
	}

	if c.predicate.Matches(resp, path) {
		return nil, false
	}

	finding := &scanmodel.Finding{
		URL:            resp.FinalURL,
		Path:           path,
		Status:         resp.StatusCode,
		Size:           resp.BodyLength,
		ContentType:    resp.ContentType,
		RedirectTarget: resp.RedirectTarget,
		Depth:          c.root.Depth,
		ResponseTime:   resp.Elapsed,
	}
	finding.IsDirectory = looksLikeDirectory(finding)

	key := finding.Key()
	c.mu.Lock()
	if _, dup := c.seen[key]; dup {
		c.mu.Unlock()
		return nil, false
	}
	c.seen[key] = struct{}{}
	c.mu.Unlock()

	return finding, true
}

// looksLikeDirectory implements the exact rule from the classifier
// contract: a 301/302 redirecting to path+"/"; a path that already ends
// in "/"; or an extensionless path serving 200 text/html.
//
// 403 responses on extensionless paths are deliberately NOT treated as
// directories here (left off by default per the open design question).
func looksLikeDirectory(f *scanmodel.Finding) bool {
	if strings.HasSuffix(f.Path, "/") {
		return true
	}
	if (f.Status == 301 || f.Status == 302) && redirectsToSlash(f.URL, f.RedirectTarget) {
		return true
	}
	if f.Status == 200 && strings.HasPrefix(f.ContentType, "text/html") && !hasExtension(f.Path) {
		return true
	}
	return false
}

// redirectsToSlash reports whether target, resolved relative to requestURL,
// is exactly requestURL with a trailing slash appended.
func redirectsToSlash(requestURL, target string) bool {
	if target == "" {
		return false
	}
	base, err := url.Parse(requestURL)
	if err != nil {
		return target == requestURL+"/"
	}
	ref, err := url.Parse(target)
	if err != nil {
		return target == requestURL+"/"
	}
	resolved := base.ResolveReference(ref)
	return resolved.String() == requestURL+"/"
}

func hasExtension(path string) bool {
	last := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		last = path[idx+1:]
	}
	return strings.Contains(last, ".")
}

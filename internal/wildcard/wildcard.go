// Package wildcard builds the per-root soft-404 fingerprint predicate
// (component C3): before a root's candidates are dispatched, a handful of
// random nonexistent paths are probed and their responses captured as a
// small set of probe records. Later responses that match one of those
// records by status plus (redirect target, size, or body hash) are
// rejected as "just the wildcard".
package wildcard

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"strings"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

const (
	tokenLength  = 12
	probeCount   = 3
	sizeTolerance = 64
	maxHashBytes = 64 * 1024
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Fetcher is the subset of probe.Client that the detector needs, so tests
// can supply a stub without spinning up real HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*scanmodel.Response, *scanmodel.ProbeError)
}

// Predicate decides whether a later Response "is just the wildcard" for
// the root it was calibrated against.
type Predicate interface {
	Matches(resp *scanmodel.Response, path string) bool
}

// Detected reports whether a Predicate was actually calibrated from live
// probe records, as opposed to degrading to "never matches". Callers that
// want to log calibration can type-assert for it.
type Detected interface {
	Detected() bool
}

// Disabled is the null-object Predicate used when wildcard detection is
// turned off: it always returns false without the caller having to branch
// on a nil pointer.
type Disabled struct{}

func (Disabled) Matches(*scanmodel.Response, string) bool { return false }

// Detected always reports false for Disabled.
func (Disabled) Detected() bool { return false }

type fingerprintKind int

const (
	kindByStatusAndSize fingerprintKind = iota
	kindByRedirectTarget
	kindByBodyHash
)

type probeRecord struct {
	status         int
	size           int64
	redirectTarget string
	hasRedirect    bool
	bodyHash       [16]byte
	hasBodyHash    bool
}

// fingerprint is the tagged-variant predicate built from probe records.
type fingerprint struct {
	records []probeRecord
}

// Detected reports whether at least one probe succeeded and contributed a
// fingerprint record.
func (fp *fingerprint) Detected() bool { return len(fp.records) > 0 }

func (fp *fingerprint) Matches(resp *scanmodel.Response, path string) bool {
	for _, rec := range fp.records {
		if fp.recordMatches(rec, resp, path) != kindNone {
			return true
		}
	}
	return false
}

const kindNone fingerprintKind = -1

// recordMatches returns which rule fired for rec against resp, or kindNone.
// Body hashing is skipped unless the candidate's size is already within 2x
// of the probe's, so the expensive comparison only runs when plausible.
func (fp *fingerprint) recordMatches(rec probeRecord, resp *scanmodel.Response, path string) fingerprintKind {
	if resp.StatusCode != rec.status {
		return kindNone
	}
	if rec.hasRedirect && resp.RedirectTarget == rec.redirectTarget {
		return kindByRedirectTarget
	}
	if abs64(resp.BodyLength-rec.size) <= sizeTolerance {
		return kindByStatusAndSize
	}
	if rec.hasBodyHash && withinDoubleOrHalf(resp.BodyLength, rec.size) {
		if hashWithPathScrubbed(resp.Body, path) == rec.bodyHash {
			return kindByBodyHash
		}
	}
	return kindNone
}

func withinDoubleOrHalf(a, b int64) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	ratio := float64(a) / float64(b)
	return ratio >= 0.5 && ratio <= 2.0
}

// Detect probes root with random nonexistent paths and builds the
// fingerprint predicate. extensions supplies up to two representative
// extensions probed alongside the bare token. A failed probe simply
// contributes no record; the predicate is built from whatever succeeded
// (possibly none, which degrades to "never matches" rather than aborting
// the root).
func Detect(ctx context.Context, f Fetcher, extensions []string) Predicate {
	fp := &fingerprint{}

	tokens := make([]string, probeCount)
	for i := range tokens {
		tokens[i] = randomToken()
	}

	reps := extensions
	if len(reps) > 2 {
		reps = reps[:2]
	}

	probe := func(path string) {
		resp, perr := f.Fetch(ctx, path)
		if perr != nil || resp == nil {
			return
		}
		fp.records = append(fp.records, buildRecord(resp, path))
	}

	for _, tok := range tokens {
		probe(tok)
		for _, ext := range reps {
			probe(tok + "." + strings.TrimPrefix(ext, "."))
		}
	}

	return fp
}

func buildRecord(resp *scanmodel.Response, path string) probeRecord {
	rec := probeRecord{
		status: resp.StatusCode,
		size:   resp.BodyLength,
	}
	if resp.RedirectTarget != "" {
		rec.redirectTarget = resp.RedirectTarget
		rec.hasRedirect = true
	}
	if resp.StatusCode == 200 && len(resp.Body) > 0 {
		rec.bodyHash = hashWithPathScrubbed(resp.Body, path)
		rec.hasBodyHash = true
	}
	return rec
}

// hashWithPathScrubbed hashes the body with the candidate path string
// removed, to defeat servers that echo the requested path in their 200
// response. Bodies larger than 64KiB are truncated before hashing.
func hashWithPathScrubbed(body []byte, path string) [16]byte {
	if len(body) > maxHashBytes {
		body = body[:maxHashBytes]
	}
	scrubbed := strings.ReplaceAll(string(body), path, "")
	return md5.Sum([]byte(scrubbed))
}

func randomToken() string {
	buf := make([]byte, tokenLength)
	idx := make([]byte, tokenLength)
	if _, err := rand.Read(idx); err != nil {
		// crypto/rand failing is exceptional; fall back to a fixed token
		// rather than panicking mid-scan.
		for i := range buf {
			buf[i] = tokenAlphabet[i%len(tokenAlphabet)]
		}
		return string(buf)
	}
	for i, b := range idx {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

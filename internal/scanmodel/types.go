package scanmodel

import (
	"strconv"
	"time"
)

// CandidateOrigin tags the rule that produced a Candidate.
type CandidateOrigin int

const (
	OriginWord CandidateOrigin = iota
	OriginWordExt
	OriginCrawled
)

func (o CandidateOrigin) String() string {
	switch o {
	case OriginWord:
		return "word"
	case OriginWordExt:
		return "word+ext"
	case OriginCrawled:
		return "crawled"
	default:
		return "unknown"
	}
}

// Candidate is one path string proposed for probing under a scan root.
type Candidate struct {
	Path   string
	Origin CandidateOrigin
}

// ScanRoot is an absolute URL prefix under which candidates are appended.
type ScanRoot struct {
	URL   string
	Depth int
}

// ProbeErrorKind enumerates the tagged error variants the HTTP wrapper
// returns instead of a Response.
type ProbeErrorKind int

const (
	ErrConnectFailed ProbeErrorKind = iota
	ErrTimeout
	ErrTLSFailed
	ErrCancelled
	ErrRedirectLoop
	ErrOther
)

func (k ProbeErrorKind) String() string {
	switch k {
	case ErrConnectFailed:
		return "ConnectFailed"
	case ErrTimeout:
		return "Timeout"
	case ErrTLSFailed:
		return "TlsFailed"
	case ErrCancelled:
		return "Cancelled"
	case ErrRedirectLoop:
		return "RedirectLoop"
	case ErrOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// ProbeError is the tagged-variant error returned by the HTTP client
// wrapper for transient or terminal request failures.
type ProbeError struct {
	Kind    ProbeErrorKind
	Message string
}

func (e *ProbeError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// Response is the normalized result of a single HTTP attempt.
type Response struct {
	FinalURL       string
	StatusCode     int
	BodyLength     int64
	Body           []byte // retained only while wildcard/crawl need it; cleared afterward
	ContentType    string
	Elapsed        time.Duration
	RedirectTarget string // set when status is 3xx and redirects were not followed
}

// Finding is a response that survived filtering and wildcard rejection.
type Finding struct {
	URL            string
	Path           string
	Status         int
	Size           int64
	ContentType    string
	IsDirectory    bool
	RedirectTarget string
	Depth          int
	ResponseTime   time.Duration
}

// Key returns the (URL, Status) uniqueness key for dedup.
func (f Finding) Key() string {
	return f.URL + "\x00" + strconv.Itoa(f.Status)
}

// Stats is the aggregate statistics block produced by a completed (or
// cancelled) scan session.
type Stats struct {
	TotalRequests     int64
	FoundPaths        int64
	Errors            int64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
	RequestsPerSecond float64
	PausedDuration    time.Duration // accumulated time the scan spent paused; excluded from RequestsPerSecond
	PauseCount        int           // number of times the scan was paused
}

// ScanResponse is the top-level result returned by Session.Execute.
type ScanResponse struct {
	TargetURL string
	Findings  []Finding
	Stats     Stats
}

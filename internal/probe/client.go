// Package probe issues a single HTTP request with the session's timeout,
// retry, redirect and header policy applied, and returns a normalized
// Response or a tagged ProbeError (component C2).
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// userAgentPool is the small built-in pool used when RandomUA is set. One
// entry is chosen once per Client, not re-rolled per request.
var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

const (
	backoffBase = 100 * time.Millisecond
	backoffCap  = 2 * time.Second
	maxHops     = 5
)

// Client wraps *http.Client with the scan engine's timeout, retry,
// redirect and header contract.
type Client struct {
	http       *http.Client
	baseURL    *url.URL
	headers    *scanmodel.HeaderSet
	userAgent  string
	timeout    time.Duration
	maxRetries int
}

// Options configures a new Client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	FollowRedirects bool
	Headers         *scanmodel.HeaderSet
	UserAgent       string
	RandomUA        bool
	Proxy           string
	MaxRetries      int
	Threads         int
}

// NewClient builds a Client from Options, resolving the base URL and
// wiring the shared transport (connection pooling + keep-alives act as
// the session-lifetime DNS/connection cache).
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" {
		base.Scheme = "http"
	}
	base.Path = strings.TrimRight(base.Path, "/")

	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		DialContext: (&net.Dialer{
			Timeout: opts.Timeout,
		}).DialContext,
		MaxIdleConnsPerHost: threads,
		MaxIdleConns:        threads,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}

	if !opts.FollowRedirects {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxHops {
				return errRedirectLoop
			}
			return nil
		}
	}

	ua := opts.UserAgent
	if ua == "" {
		if opts.RandomUA {
			ua = userAgentPool[rand.IntN(len(userAgentPool))]
		} else {
			ua = scanmodel.DefaultUserAgent
		}
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		http:       httpClient,
		baseURL:    base,
		headers:    opts.Headers,
		userAgent:  ua,
		timeout:    opts.Timeout,
		maxRetries: maxRetries,
	}, nil
}

// UserAgent returns the user-agent this client will send, for diagnostics
// (e.g. disclosing the random-UA choice in the structured log).
func (c *Client) UserAgent() string { return c.userAgent }

// WithBase returns a shallow copy of c rooted at base instead of c's
// original base URL. The underlying *http.Client (and so its connection
// pool) is shared, which is what makes this cheap enough to call once per
// recursion root.
func (c *Client) WithBase(base string) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/")
	clone := *c
	clone.baseURL = u
	return &clone, nil
}

var errRedirectLoop = errors.New("redirect loop")

// Fetch issues a single GET for path under the client's base URL, retrying
// transient failures and 5xx responses with exponential backoff. 4xx
// responses return immediately. ctx cancellation aborts in-flight attempts
// and further retries.
func (c *Client) Fetch(ctx context.Context, path string) (*scanmodel.Response, *scanmodel.ProbeError) {
	target := c.baseURL.String() + "/" + strings.TrimLeft(path, "/")

	var lastResp *scanmodel.Response
	var lastErr *scanmodel.ProbeError

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, &scanmodel.ProbeError{Kind: scanmodel.ErrCancelled}
		}

		resp, perr := c.attempt(ctx, target)
		if perr == nil {
			if resp.StatusCode >= 500 && attempt < c.maxRetries {
				lastResp, lastErr = resp, nil
				sleepBackoff(ctx, attempt)
				continue
			}
			return resp, nil
		}

		if perr.Kind == scanmodel.ErrCancelled {
			return nil, perr
		}
		// 4xx is surfaced by attempt() as a successful Response, never as
		// a ProbeError, so anything reaching here is transient.
		lastErr = perr
		if attempt < c.maxRetries {
			sleepBackoff(ctx, attempt)
			continue
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, target string) (*scanmodel.Response, *scanmodel.ProbeError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &scanmodel.ProbeError{Kind: scanmodel.ErrOther, Message: err.Error()}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	c.headers.Each(func(name, value string) {
		req.Header.Set(name, value)
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		// A redirect loop is surfaced through the normal ProbeError return
		// like any other transport failure, so the caller's error counting
		// and classification don't need a second code path for it.
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, classifyTransportError(ctx, readErr)
	}

	out := &scanmodel.Response{
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		BodyLength:  int64(len(body)),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Elapsed:     elapsed,
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		out.RedirectTarget = resp.Header.Get("Location")
	}

	return out, nil
}

func classifyTransportError(ctx context.Context, err error) *scanmodel.ProbeError {
	if ctx.Err() != nil {
		return &scanmodel.ProbeError{Kind: scanmodel.ErrCancelled}
	}
	if errors.Is(err, errRedirectLoop) || isRedirectLoop(err) {
		return &scanmodel.ProbeError{Kind: scanmodel.ErrRedirectLoop, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &scanmodel.ProbeError{Kind: scanmodel.ErrTimeout, Message: err.Error()}
	}
	if isTLSError(err) {
		return &scanmodel.ProbeError{Kind: scanmodel.ErrTLSFailed, Message: err.Error()}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &scanmodel.ProbeError{Kind: scanmodel.ErrConnectFailed, Message: err.Error()}
	}
	return &scanmodel.ProbeError{Kind: scanmodel.ErrOther, Message: err.Error()}
}

func isRedirectLoop(err error) bool {
	urlErr, ok := err.(*url.Error)
	return ok && errors.Is(urlErr.Err, errRedirectLoop)
}

func isTLSError(err error) bool {
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	return errors.As(err, &recordErr)
}

// sleepBackoff waits base*2^attempt (capped) with ±25% jitter, or returns
// early if ctx is cancelled.
func sleepBackoff(ctx context.Context, attempt int) {
	delay := backoffBase << attempt
	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}
	jitter := float64(delay) * 0.25
	offset := (rand.Float64()*2 - 1) * jitter
	delay = time.Duration(float64(delay) + offset)
	if delay < 0 {
		delay = 0
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

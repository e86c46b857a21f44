// Package config holds the flat CLI-bound Options struct and translates it
// into the core engine's scanmodel.ScanRequest, keeping every flag-parsing
// and flag-defaulting concern out of the scan engine itself.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// Options holds all configuration for a dirscan run. Every field is bound
// to a Cobra flag in cmd/dirscan; ToScanRequest projects it down to the
// engine's immutable input type.
type Options struct {
	// Target
	URL             string
	URLsFile        string // -l: file with one URL per line
	WordlistPath    string // empty = use embedded
	ExtraWordlists  []string
	Extensions      []string
	ForceExtensions bool

	// Performance
	Threads          int
	Timeout          time.Duration
	Delay            time.Duration
	AdaptiveThrottle bool

	// Status filtering
	IncludeStatus []int
	ExcludeStatus []int

	// Output
	OutputFile   string
	OutputFormat string // "text", "json", "csv"
	Quiet        bool
	NoColor      bool
	SortBy       string
	Tree         bool

	// Recursion
	Recursive bool
	MaxDepth  int

	// Wildcard detection
	DetectWildcards bool

	// Resume
	ResumeFile string

	// HTTP
	RequestFile     string
	Headers         map[string]string
	UserAgent       string
	RandomUA        bool
	Proxy           string
	FollowRedirects bool
	MaxRetries      int

	// Network
	CIDRTargets string
	Ports       string

	// Crawl
	Crawl      bool
	CrawlDepth int

	// Hooks
	OnResultCmd string // shell command run per finding

	// Config file (viper layering)
	ConfigFile string
}

// ToScanRequest projects the CLI-shaped Options onto one target URL into
// the engine's ScanRequest. Callers resolve multi-target options (-l,
// --cidr) into individual base URLs before calling this once per target.
func (o *Options) ToScanRequest(baseURL string) *scanmodel.ScanRequest {
	req := &scanmodel.ScanRequest{
		BaseURL:             baseURL,
		WordlistPath:        o.WordlistPath,
		AdditionalWordlists: o.ExtraWordlists,
		Extensions:          o.Extensions,
		ForceExtensions:     o.ForceExtensions,
		Threads:             o.Threads,
		Timeout:             o.Timeout,
		Delay:               o.Delay,
		UserAgent:           o.UserAgent,
		RandomUA:            o.RandomUA,
		FollowRedirects:     o.FollowRedirects,
		Proxy:               o.Proxy,
		MaxRetries:          o.MaxRetries,
		Recursive:           o.Recursive,
		RecursionDepth:      o.MaxDepth,
		DetectWildcards:     o.DetectWildcards,
		Crawl:               o.Crawl,
		CrawlDepth:          o.CrawlDepth,
		AdaptiveThrottle:    o.AdaptiveThrottle,
	}

	if len(o.Headers) > 0 {
		req.Headers = scanmodel.NewHeaderSet(o.Headers)
	}
	if len(o.IncludeStatus) > 0 {
		req.IncludeStatus = toStatusSet(o.IncludeStatus)
	}
	if len(o.ExcludeStatus) > 0 {
		req.ExcludeStatus = toStatusSet(o.ExcludeStatus)
	}

	return req
}

func toStatusSet(codes []int) map[int]struct{} {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

// LoadFile layers a viper-parsed config file (JSON, YAML or TOML, detected
// by extension) under o: values already set by flags are left untouched,
// so the precedence is flags > config file > Options zero values. Returns
// nil if o.ConfigFile is empty.
func (o *Options) LoadFile(changed func(flag string) bool) error {
	if o.ConfigFile == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(o.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if !changed("threads") && v.IsSet("threads") {
		o.Threads = v.GetInt("threads")
	}
	if !changed("timeout") && v.IsSet("timeout") {
		o.Timeout = v.GetDuration("timeout")
	}
	if !changed("delay") && v.IsSet("delay") {
		o.Delay = v.GetDuration("delay")
	}
	if !changed("wordlist") && v.IsSet("wordlist") {
		o.WordlistPath = v.GetString("wordlist")
	}
	if !changed("extensions") && v.IsSet("extensions") {
		o.Extensions = v.GetStringSlice("extensions")
	}
	if !changed("user-agent") && v.IsSet("user-agent") {
		o.UserAgent = v.GetString("user-agent")
	}
	if !changed("proxy") && v.IsSet("proxy") {
		o.Proxy = v.GetString("proxy")
	}
	if !changed("max-depth") && v.IsSet("max-depth") {
		o.MaxDepth = v.GetInt("max-depth")
	}
	if !changed("crawl-depth") && v.IsSet("crawl-depth") {
		o.CrawlDepth = v.GetInt("crawl-depth")
	}
	if v.IsSet("headers") {
		raw := v.GetStringMapString("headers")
		if o.Headers == nil {
			o.Headers = make(map[string]string, len(raw))
		}
		for k, val := range raw {
			if _, set := o.Headers[k]; !set {
				o.Headers[k] = val
			}
		}
	}

	return nil
}

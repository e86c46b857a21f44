// Package scanlog wraps zerolog with the small set of structured events
// the scan engine emits: scan start/stop, per-root recursion transitions,
// throttle adjustments, and probe errors. It replaces the teacher's plain
// fmt.Fprintf(os.Stderr, ...) diagnostics with structured, level-filterable
// output while keeping the same terse, occasional-use feel.
package scanlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// Logger is the scan engine's structured logger.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing to w (os.Stderr if nil) at the given level.
// quiet maps to zerolog.WarnLevel so only throttle/error events surface.
func New(w io.Writer, quiet bool) Logger {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.WarnLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: false}
	zl := zerolog.New(console).Level(level).With().Timestamp().Logger()
	return Logger{zl: zl}
}

// Nop returns a Logger that discards everything, for tests and library
// callers that don't want scan diagnostics on stderr.
func Nop() Logger {
	return Logger{zl: zerolog.Nop()}
}

func (l Logger) ScanStarted(target string, candidateCount int, userAgent string) {
	l.zl.Info().
		Str("target", target).
		Int("candidates", candidateCount).
		Str("user_agent", userAgent).
		Msg("scan started")
}

func (l Logger) ScanFinished(stats scanmodel.Stats) {
	l.zl.Info().
		Int64("total_requests", stats.TotalRequests).
		Int64("found", stats.FoundPaths).
		Int64("errors", stats.Errors).
		Dur("duration", stats.Duration).
		Float64("req_per_sec", stats.RequestsPerSecond).
		Msg("scan finished")
}

func (l Logger) RootStateChanged(root scanmodel.ScanRoot, state string) {
	l.zl.Debug().
		Str("root", root.URL).
		Int("depth", root.Depth).
		Str("state", state).
		Msg("recursion root transitioned")
}

func (l Logger) ProbeError(path string, err *scanmodel.ProbeError) {
	l.zl.Warn().
		Str("path", path).
		Str("kind", err.Kind.String()).
		Str("message", err.Message).
		Msg("probe failed")
}

func (l Logger) ThrottleAdjusted(delay time.Duration, reason string) {
	l.zl.Warn().
		Dur("delay", delay).
		Str("reason", reason).
		Msg("adaptive throttle adjusted")
}

func (l Logger) WildcardDetected(root scanmodel.ScanRoot) {
	l.zl.Info().
		Str("root", root.URL).
		Msg("wildcard fingerprint calibrated")
}

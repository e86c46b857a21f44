package report

import (
	"encoding/json"
	"io"
	"os"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

type jsonFinding struct {
	URL            string `json:"url"`
	Path           string `json:"path"`
	Status         int    `json:"status"`
	Size           int64  `json:"size"`
	ContentType    string `json:"content_type,omitempty"`
	IsDirectory    bool   `json:"is_directory"`
	RedirectTarget string `json:"redirect,omitempty"`
	Depth          int    `json:"depth"`
}

type jsonReport struct {
	Findings []jsonFinding `json:"findings"`
	Stats    jsonStats     `json:"stats"`
}

type jsonStats struct {
	TotalRequests     int64   `json:"total_requests"`
	FoundPaths        int64   `json:"found_paths"`
	Errors            int64   `json:"errors"`
	DurationSeconds   float64 `json:"duration_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	PausedSeconds     float64 `json:"paused_seconds,omitempty"`
	PauseCount        int     `json:"pause_count,omitempty"`
}

// JSONWriter buffers findings and emits a single JSON document on Close.
type JSONWriter struct {
	w        io.Writer
	closer   io.Closer
	findings []jsonFinding
}

func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w, closer = f, f
	}
	return &JSONWriter{w: w, closer: closer}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteFinding(f *scanmodel.Finding) error {
	j.findings = append(j.findings, jsonFinding{
		URL:            f.URL,
		Path:           f.Path,
		Status:         f.Status,
		Size:           f.Size,
		ContentType:    f.ContentType,
		IsDirectory:    f.IsDirectory,
		RedirectTarget: f.RedirectTarget,
		Depth:          f.Depth,
	})
	return nil
}

func (j *JSONWriter) WriteFooter(stats scanmodel.Stats) error {
	out := jsonReport{
		Findings: j.findings,
		Stats: jsonStats{
			TotalRequests:     stats.TotalRequests,
			FoundPaths:        stats.FoundPaths,
			Errors:            stats.Errors,
			DurationSeconds:   stats.Duration.Seconds(),
			RequestsPerSecond: stats.RequestsPerSecond,
			PausedSeconds:     stats.PausedDuration.Seconds(),
			PauseCount:        stats.PauseCount,
		},
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

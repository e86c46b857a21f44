package report

import (
	"sort"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// SortedWriter buffers findings and replays them sorted by a field when
// WriteFooter is called, wrapping any other Writer.
type SortedWriter struct {
	inner    Writer
	sortBy   string
	findings []*scanmodel.Finding
}

// NewSortedWriter wraps inner, sorting by "status", "path", or "size"
// (any other value leaves insertion order unchanged).
func NewSortedWriter(inner Writer, sortBy string) *SortedWriter {
	return &SortedWriter{inner: inner, sortBy: sortBy}
}

func (w *SortedWriter) WriteHeader() error {
	return w.inner.WriteHeader()
}

func (w *SortedWriter) WriteFinding(f *scanmodel.Finding) error {
	cpy := *f
	w.findings = append(w.findings, &cpy)
	return nil
}

func (w *SortedWriter) WriteFooter(stats scanmodel.Stats) error {
	sort.SliceStable(w.findings, func(i, j int) bool {
		switch w.sortBy {
		case "status":
			return w.findings[i].Status < w.findings[j].Status
		case "size":
			return w.findings[i].Size < w.findings[j].Size
		case "path":
			return w.findings[i].Path < w.findings[j].Path
		default:
			return false
		}
	})
	for _, f := range w.findings {
		if err := w.inner.WriteFinding(f); err != nil {
			return err
		}
	}
	return w.inner.WriteFooter(stats)
}

func (w *SortedWriter) Close() error {
	return w.inner.Close()
}

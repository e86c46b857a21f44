// Package report renders a finished (or in-progress) scan's findings in
// the operator-selected output format, mirroring the teacher's own
// output package but driven off scanmodel.Finding/Stats instead of the
// flat brute-forcer ScanResult.
package report

import (
	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// Writer is implemented by each output format.
type Writer interface {
	WriteHeader() error
	WriteFinding(f *scanmodel.Finding) error
	WriteFooter(stats scanmodel.Stats) error
	Close() error
}

// New builds a Writer for format ("text", "json", "csv"), writing to
// outputFile (stdout when empty).
func New(format, outputFile string, noColor, quiet bool) (Writer, error) {
	switch format {
	case "json":
		return NewJSONWriter(outputFile)
	case "csv":
		return NewCSVWriter(outputFile)
	default:
		return NewTextWriter(outputFile, noColor, quiet)
	}
}

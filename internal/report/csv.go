package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// CSVWriter writes findings in CSV format.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

func NewCSVWriter(outputFile string) (*CSVWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w, closer = f, f
	}
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"url", "path", "status", "size", "is_directory", "redirect"})
}

func (c *CSVWriter) WriteFinding(f *scanmodel.Finding) error {
	return c.w.Write([]string{
		f.URL,
		f.Path,
		strconv.Itoa(f.Status),
		fmt.Sprintf("%d", f.Size),
		strconv.FormatBool(f.IsDirectory),
		f.RedirectTarget,
	})
}

func (c *CSVWriter) WriteFooter(_ scanmodel.Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

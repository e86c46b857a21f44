package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

func TestTextWriterWritesFindingAndFooter(t *testing.T) {
	w, err := NewTextWriter("", true, false)
	if err != nil {
		t.Fatalf("NewTextWriter: %v", err)
	}
	var buf bytes.Buffer
	w.w = &buf

	if err := w.WriteHeader(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFinding(&scanmodel.Finding{Path: "admin", Status: 200, Size: 512}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFooter(scanmodel.Stats{TotalRequests: 10, FoundPaths: 1}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "admin") || !strings.Contains(out, "200") {
		t.Errorf("expected finding line in output, got %q", out)
	}
}

func TestJSONWriterEmitsValidDocument(t *testing.T) {
	w, err := NewJSONWriter("")
	if err != nil {
		t.Fatalf("NewJSONWriter: %v", err)
	}
	var buf bytes.Buffer
	w.w = &buf

	_ = w.WriteFinding(&scanmodel.Finding{URL: "http://x/admin", Path: "admin", Status: 200, Size: 10})
	if err := w.WriteFooter(scanmodel.Stats{TotalRequests: 1, FoundPaths: 1}); err != nil {
		t.Fatal(err)
	}

	var decoded jsonReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(decoded.Findings) != 1 || decoded.Findings[0].Path != "admin" {
		t.Errorf("unexpected decoded findings: %+v", decoded.Findings)
	}
}

func TestSortedWriterOrdersByStatus(t *testing.T) {
	jw, err := NewJSONWriter("")
	if err != nil {
		t.Fatalf("NewJSONWriter: %v", err)
	}
	var buf bytes.Buffer
	jw.w = &buf

	sw := NewSortedWriter(jw, "status")
	_ = sw.WriteFinding(&scanmodel.Finding{Path: "b", Status: 500})
	_ = sw.WriteFinding(&scanmodel.Finding{Path: "a", Status: 200})
	if err := sw.WriteFooter(scanmodel.Stats{}); err != nil {
		t.Fatal(err)
	}

	var decoded jsonReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(decoded.Findings) != 2 || decoded.Findings[0].Status != 200 {
		t.Errorf("expected status-sorted findings, got %+v", decoded.Findings)
	}
}

func TestPrintTreeRendersDirectories(t *testing.T) {
	var buf bytes.Buffer
	tree := &scanmodel.Tree{
		Name: "/",
		Children: []*scanmodel.Tree{
			{Name: "admin", Children: []*scanmodel.Tree{{Name: "config"}}},
		},
	}
	PrintTree(&buf, tree)
	out := buf.String()
	if !strings.Contains(out, "admin") || !strings.Contains(out, "config") {
		t.Errorf("expected tree output to contain admin/config, got %q", out)
	}
	if strings.Contains(out, "robots.txt") {
		t.Error("non-tree content should not appear in the output")
	}
}

func TestPrintTreeSkipsEmptyTree(t *testing.T) {
	var buf bytes.Buffer
	PrintTree(&buf, &scanmodel.Tree{Name: "/"})
	if buf.Len() != 0 {
		t.Errorf("expected no output for a tree with no children, got %q", buf.String())
	}
}

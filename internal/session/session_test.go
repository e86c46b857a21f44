package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxvaer/dirscan/internal/scanlog"
	"github.com/maxvaer/dirscan/internal/scanmodel"
)

func writeWordlist(t *testing.T, words ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	content := ""
	for _, w := range words {
		content += w + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing wordlist: %v", err)
	}
	return path
}

func baseReq(t *testing.T, url string, words ...string) *scanmodel.ScanRequest {
	return &scanmodel.ScanRequest{
		BaseURL:      url,
		WordlistPath: writeWordlist(t, words...),
		Threads:      4,
		Timeout:      2 * time.Second,
		MaxRetries:   1,
	}
}

func TestExecuteFlatScanFindsPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin":
			w.WriteHeader(200)
			w.Write([]byte("admin"))
		case "/login":
			w.WriteHeader(200)
			w.Write([]byte("login"))
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	req := baseReq(t, srv.URL, "admin", "login", "missing")
	s := New(req, scanlog.Nop())

	resp, err := s.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(resp.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(resp.Findings), resp.Findings)
	}
	if resp.Stats.TotalRequests != 3 {
		t.Errorf("expected 3 total requests, got %d", resp.Stats.TotalRequests)
	}
}

func TestExecuteCandidateFilterSkipsCompletedPaths(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	req := baseReq(t, srv.URL, "admin", "login", "backup")
	s := New(req, scanlog.Nop())
	s.SetCandidateFilter(func(_ scanmodel.ScanRoot, path string) bool { return path != "login" })

	var probed []string
	s.SetProbedCallback(func(_ scanmodel.ScanRoot, c scanmodel.Candidate) { probed = append(probed, c.Path) })

	if _, err := s.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, p := range requested {
		if p == "/login" {
			t.Error("expected filtered-out candidate login to never be requested")
		}
	}
	if len(probed) != 2 {
		t.Errorf("expected 2 probed candidates after filtering, got %d: %v", len(probed), probed)
	}
}

func TestBuildDirectoryTreeGroupsNestedDirectories(t *testing.T) {
	s := New(&scanmodel.ScanRequest{}, scanlog.Nop())
	tree := s.BuildDirectoryTree([]scanmodel.Finding{
		{Path: "admin", IsDirectory: true},
		{Path: "admin/config", IsDirectory: true},
		{Path: "robots.txt", IsDirectory: false},
	})

	if len(tree.Children) != 1 || tree.Children[0].Name != "admin" {
		t.Fatalf("expected a single top-level admin node, got %+v", tree.Children)
	}
	admin := tree.Children[0]
	if len(admin.Children) != 1 || admin.Children[0].Name != "config" {
		t.Errorf("expected admin to contain config, got %+v", admin.Children)
	}
}

func TestExecuteRejectsMalformedRequest(t *testing.T) {
	req := &scanmodel.ScanRequest{BaseURL: "http://x"} // Threads/Timeout unset
	s := New(req, scanlog.Nop())
	if _, err := s.Execute(context.Background()); err == nil {
		t.Fatal("expected validation error for malformed request")
	}
}

func TestExecuteWildcardSuppressesCatchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("catch-all content for everything"))
	}))
	defer srv.Close()

	req := baseReq(t, srv.URL, "admin", "login")
	req.DetectWildcards = true
	s := New(req, scanlog.Nop())

	resp, err := s.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(resp.Findings) != 0 {
		t.Errorf("expected wildcard detection to suppress all catch-all findings, got %+v", resp.Findings)
	}
}

func TestExecuteRecursesIntoDirectories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/docs":
			w.Header().Set("Location", "/docs/")
			w.WriteHeader(301)
		case "/docs/index":
			w.WriteHeader(200)
			w.Write([]byte("index"))
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	req := baseReq(t, srv.URL, "docs", "index")
	req.Recursive = true
	req.RecursionDepth = 2
	s := New(req, scanlog.Nop())

	resp, err := s.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	foundDocsDir := false
	foundIndexInside := false
	for _, f := range resp.Findings {
		if f.Path == "docs" && f.IsDirectory {
			foundDocsDir = true
		}
		if f.Path == "index" && f.Depth == 1 {
			foundIndexInside = true
		}
	}
	if !foundDocsDir {
		t.Error("expected docs to be classified as a directory")
	}
	if !foundIndexInside {
		t.Errorf("expected recursion into docs/ to find index at depth 1, got %+v", resp.Findings)
	}
}

func TestExecuteHonorsCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	req := baseReq(t, srv.URL, "a", "b", "c")
	req.Timeout = 5 * time.Second
	s := New(req, scanlog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := s.Execute(ctx)
	if err == nil {
		t.Fatal("expected Execute to report cancellation")
	}
}

func TestStopCancelsRunningScan(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	req := baseReq(t, srv.URL, "a")
	req.Timeout = 5 * time.Second
	s := New(req, scanlog.Nop())

	go func() {
		time.Sleep(30 * time.Millisecond)
		s.Stop()
	}()

	_, err := s.Execute(context.Background())
	if err == nil {
		t.Fatal("expected Execute to report the Stop-triggered cancellation")
	}
}

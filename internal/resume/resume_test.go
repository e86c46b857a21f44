package resume

import (
	"path/filepath"
	"testing"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

func TestMarkCompletedIsScopedToItsRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"), "https://example.com", 3)
	root := scanmodel.ScanRoot{URL: "https://example.com"}
	sub := scanmodel.ScanRoot{URL: "https://example.com/admin"}

	s.MarkCompleted(root, scanmodel.Candidate{Path: "config"})

	if !s.IsCompleted(root, "config") {
		t.Error("expected config to be marked completed under the top-level root")
	}
	if s.IsCompleted(sub, "config") {
		t.Error("marking a path completed under one root should not mark it completed under another")
	}
}

func TestMarkCompletedIgnoresTrailingSlashOnRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"), "https://example.com", 1)
	s.MarkCompleted(scanmodel.ScanRoot{URL: "https://example.com/admin/"}, scanmodel.Candidate{Path: "config"})

	if !s.IsCompleted(scanmodel.ScanRoot{URL: "https://example.com/admin"}, "config") {
		t.Error("a trailing slash on the root should not change the completion key")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path, "https://example.com", 3)
	root := scanmodel.ScanRoot{URL: "https://example.com"}
	s.MarkCompleted(root, scanmodel.Candidate{Path: "admin"})
	s.MarkCompleted(root, scanmodel.Candidate{Path: "login"})

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected loaded state, got nil")
	}
	if !loaded.IsCompleted(root, "admin") || !loaded.IsCompleted(root, "login") {
		t.Error("expected loaded state to carry over completed (root, path) pairs")
	}
}

func TestLoadMissingFileReturnsNil(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Error("expected nil state for missing file")
	}
}

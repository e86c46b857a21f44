package pathgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

func writeWordlist(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "words.txt")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGenerateDeterministic(t *testing.T) {
	wl := writeWordlist(t, "# comment\nadmin\n\napi\nconfig.json\n")

	first, err := Generate(wl, nil, []string{"php", "bak"}, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := Generate(wl, nil, []string{"php", "bak"}, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic entry at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGenerateExtensions(t *testing.T) {
	wl := writeWordlist(t, "config\nconfig.json\n")

	cands, err := Generate(wl, nil, []string{"php"}, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	paths := pathsOf(cands)

	mustContain(t, paths, "config")
	mustContain(t, paths, "config.php")
	mustContain(t, paths, "config.json")
	if contains(paths, "config.json.php") {
		t.Error("should not append extension to an entry that already has a dot, without force flag")
	}
}

func TestGenerateForceExtensions(t *testing.T) {
	wl := writeWordlist(t, "config.json\n")

	cands, err := Generate(wl, nil, []string{"bak"}, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	paths := pathsOf(cands)
	mustContain(t, paths, "config.json")
	mustContain(t, paths, "config.json.bak")
}

func TestGenerateStripsLeadingSlash(t *testing.T) {
	wl := writeWordlist(t, "/admin\n")
	cands, err := Generate(wl, nil, nil, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if cands[0].Path != "admin" {
		t.Errorf("expected leading slash stripped, got %q", cands[0].Path)
	}
}

func TestGenerateRejectsTraversal(t *testing.T) {
	wl := writeWordlist(t, "../etc/passwd\n")
	if _, err := Generate(wl, nil, nil, false); err == nil {
		t.Error("expected error for path traversal segment")
	}
}

func TestGenerateDedupAcrossFiles(t *testing.T) {
	primary := writeWordlist(t, "admin\napi\n")
	extra := writeWordlist(t, "api\nlogin\n")
	cands, err := Generate(primary, []string{extra}, nil, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	paths := pathsOf(cands)
	count := 0
	for _, p := range paths {
		if p == "api" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected api to be de-duplicated across files, got %d occurrences", count)
	}
}

func TestDedupMergesCrawled(t *testing.T) {
	existing := []scanmodel.Candidate{{Path: "admin", Origin: scanmodel.OriginWord}}
	fresh := []scanmodel.Candidate{
		{Path: "admin", Origin: scanmodel.OriginCrawled},
		{Path: "secret", Origin: scanmodel.OriginCrawled},
	}
	merged, err := Dedup(existing, fresh)
	if err != nil {
		t.Fatalf("Dedup: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 entries after dedup, got %d", len(merged))
	}
	if merged[0].Origin != scanmodel.OriginWord {
		t.Error("existing entries should keep their original origin")
	}
}

func pathsOf(cands []scanmodel.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Path
	}
	return out
}

func contains(items []string, target string) bool {
	for _, v := range items {
		if v == target {
			return true
		}
	}
	return false
}

func mustContain(t *testing.T, items []string, target string) {
	t.Helper()
	if !contains(items, target) {
		t.Errorf("expected %q in %v", target, items)
	}
}

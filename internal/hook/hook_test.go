package hook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

func TestRunExpandsPlaceholdersAndExecutes(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "out.txt")

	r := NewRunner("cat > "+marker, true)
	r.Run(&scanmodel.Finding{URL: "http://x/admin", Path: "admin", Status: 200, Size: 42})

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("reading hook output: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected hook to receive JSON payload on stdin")
	}
}

func TestRunSurvivesBadCommand(t *testing.T) {
	r := NewRunner("definitely-not-a-real-command-xyz", true)
	r.Run(&scanmodel.Finding{URL: "http://x/a", Path: "a", Status: 200})
}

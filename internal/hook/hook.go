// Package hook runs an operator-supplied shell command for each finding a
// scan produces, feeding it the finding as JSON on stdin. It is wired in
// by cmd/dirscan through Session.SetResultCallback, never by the engine
// itself.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

type findingJSON struct {
	URL            string `json:"url"`
	Path           string `json:"path"`
	StatusCode     int    `json:"status"`
	Size           int64  `json:"size"`
	ContentType    string `json:"content_type,omitempty"`
	RedirectTarget string `json:"redirect,omitempty"`
	IsDirectory    bool   `json:"is_directory"`
	Depth          int    `json:"depth"`
}

// Runner executes a shell command for each finding a scan produces.
type Runner struct {
	cmd   string
	quiet bool
}

// NewRunner creates a hook runner. cmd is the shell command to execute,
// with {url}/{path}/{status}/{size} placeholders expanded per finding.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet}
}

// Run executes the hook command with f as JSON on stdin. The command runs
// with a 30-second timeout; errors are logged but never propagated, since
// a misbehaving hook must not abort the scan it's observing.
func (r *Runner) Run(f *scanmodel.Finding) {
	payload := findingJSON{
		URL:            f.URL,
		Path:           f.Path,
		StatusCode:     f.Status,
		Size:           f.Size,
		ContentType:    f.ContentType,
		RedirectTarget: f.RedirectTarget,
		IsDirectory:    f.IsDirectory,
		Depth:          f.Depth,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[hook] marshal error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expanded := r.cmd
	expanded = strings.ReplaceAll(expanded, "{url}", f.URL)
	expanded = strings.ReplaceAll(expanded, "{path}", f.Path)
	expanded = strings.ReplaceAll(expanded, "{status}", fmt.Sprintf("%d", f.Status))
	expanded = strings.ReplaceAll(expanded, "{size}", fmt.Sprintf("%d", f.Size))

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, expanded)...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "[hook] error: %v\n", err)
		}
		return
	}
	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(os.Stderr, "[hook] %s", output)
	}
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}

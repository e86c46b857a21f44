// Package tui wires a terminal's stdin to the engine's pause gate: Enter or
// Space toggles the scan between running and paused, mirroring the
// teacher's own raw-terminal pause toggle.
package tui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/maxvaer/dirscan/internal/engine"
)

// PauseToggle reads single keypresses from stdin and toggles pauser on
// Enter or Space. It returns a cleanup function that restores the
// terminal's prior state; if stdin is not a terminal it returns a no-op
// cleanup and never toggles anything.
func PauseToggle(pauser *engine.Pauser, quiet bool) (cleanup func()) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		if !quiet {
			fmt.Fprintf(os.Stderr, "[!] could not enable raw terminal: %v\n", err)
		}
		return func() {}
	}

	done := make(chan struct{})
	cleanup = func() {
		close(done)
		_ = term.Restore(fd, oldState)
	}

	go func() {
		buf := make([]byte, 1)
		for {
			select {
			case <-done:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if err != nil {
				if err == io.EOF {
					return
				}
				return
			}
			if n == 0 {
				continue
			}

			switch buf[0] {
			case '\r', '\n', ' ':
				paused := pauser.Toggle()
				if !quiet {
					if paused {
						fmt.Fprint(os.Stderr, "\r\033[K[*] scan PAUSED — press Enter or Space to resume\n")
					} else {
						fmt.Fprint(os.Stderr, "\r\033[K[*] scan RESUMED\n")
					}
				}
			case 0x03: // Ctrl+C
				_ = term.Restore(fd, oldState)
				return
			}
		}
	}()

	return cleanup
}

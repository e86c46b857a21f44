// Package resume persists and restores scan progress across interruptions.
// A dirscan run isn't flat like a single wordlist sweep: recursion opens
// new scan roots mid-run, and the same wordlist word is legitimately
// probed again under each of them. The checkpoint is keyed on (root,
// path) pairs for that reason — a bare path set would either skip that
// word everywhere after the first root completed it, or resume nothing
// at all once recursion was in play.
package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// completion identifies one attempted (root, path) pair.
type completion struct {
	Root string `json:"root"`
	Path string `json:"path"`
}

func key(root, path string) string {
	return normalizeRoot(root) + "\x00" + path
}

func normalizeRoot(root string) string {
	return strings.ToLower(strings.TrimRight(root, "/"))
}

// State tracks the (root, path) pairs a scan has already probed, so it can
// be resumed after interruption without re-probing them.
type State struct {
	URL         string       `json:"url"`
	Completions []completion `json:"completions"`
	TotalPaths  int          `json:"total_paths"`

	mu   sync.Mutex
	path string
	done map[string]struct{}
}

// New creates a new empty resume state that will be saved to the given path.
func New(path, url string, totalPaths int) *State {
	return &State{
		URL:        url,
		TotalPaths: totalPaths,
		path:       path,
		done:       make(map[string]struct{}),
	}
}

// Load reads an existing resume state from disk. Returns nil if the file
// does not exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}

	s.path = path
	s.done = make(map[string]struct{}, len(s.Completions))
	for _, c := range s.Completions {
		s.done[key(c.Root, c.Path)] = struct{}{}
	}

	return &s, nil
}

// IsCompleted reports whether (root, path) was already probed in a prior
// run. root is the recursion root's base URL; for the scan's initial
// target, pass its ScanRoot.URL.
func (s *State) IsCompleted(root scanmodel.ScanRoot, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.done[key(root.URL, path)]
	return ok
}

// MarkCompleted records a (root, path) pair as probed.
func (s *State) MarkCompleted(root scanmodel.ScanRoot, c scanmodel.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(root.URL, c.Path)
	if _, ok := s.done[k]; !ok {
		s.done[k] = struct{}{}
		s.Completions = append(s.Completions, completion{Root: normalizeRoot(root.URL), Path: c.Path})
	}
}

// Save writes the current state to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Remove deletes the resume file (called on successful completion).
func (s *State) Remove() error {
	return os.Remove(s.path)
}

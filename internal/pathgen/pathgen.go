// Package pathgen turns a wordlist plus extension rules into the concrete
// Candidates probed against a scan root (component C1).
package pathgen

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// Generate loads the primary wordlist and any additional wordlists and
// expands each raw word into the candidate set described by the request:
// the bare word; word+extension when the word has no dot; and, when
// forceExtensions is set, word+extension even when the word already has a
// dot. Output order is deterministic given the same inputs.
func Generate(wordlistPath string, additional []string, extensions []string, forceExtensions bool) ([]scanmodel.Candidate, error) {
	words, err := loadWords(wordlistPath, additional)
	if err != nil {
		return nil, err
	}

	var out []scanmodel.Candidate
	seen := make(map[string]struct{}, len(words)*2)
	add := func(path string, origin scanmodel.CandidateOrigin) error {
		norm, err := normalize(path)
		if err != nil {
			return err
		}
		if _, dup := seen[norm]; dup {
			return nil
		}
		seen[norm] = struct{}{}
		out = append(out, scanmodel.Candidate{Path: norm, Origin: origin})
		return nil
	}

	for _, w := range words {
		if err := add(w, scanmodel.OriginWord); err != nil {
			return nil, err
		}
		hasDot := strings.Contains(w, ".")
		if len(extensions) > 0 && (!hasDot || forceExtensions) {
			for _, ext := range extensions {
				ext = strings.TrimPrefix(ext, ".")
				if err := add(w+"."+ext, scanmodel.OriginWordExt); err != nil {
					return nil, err
				}
			}
		}
	}

	return out, nil
}

// Dedup merges newly discovered candidates (e.g. crawl extraction) into an
// existing candidate list, preserving first-seen order and rejecting
// unsafe paths the same way Generate does.
func Dedup(existing []scanmodel.Candidate, fresh []scanmodel.Candidate) ([]scanmodel.Candidate, error) {
	seen := make(map[string]struct{}, len(existing))
	out := make([]scanmodel.Candidate, len(existing))
	copy(out, existing)
	for _, c := range existing {
		seen[c.Path] = struct{}{}
	}
	for _, c := range fresh {
		norm, err := normalize(c.Path)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, scanmodel.Candidate{Path: norm, Origin: c.Origin})
	}
	return out, nil
}

// normalize strips a leading slash and rejects path-traversal segments.
func normalize(path string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: path %q contains a \"..\" segment", scanmodel.ErrMalformedInput, path)
		}
	}
	return path, nil
}

// loadWords reads the primary wordlist followed by any additional
// wordlists, skipping comments and blank lines, and de-duplicating across
// all files while preserving first-seen order.
func loadWords(primary string, additional []string) ([]string, error) {
	seen := make(map[string]struct{})
	var words []string

	readInto := func(path string) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: reading wordlist %s: %v", scanmodel.ErrMalformedInput, path, err)
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimRight(sc.Text(), " \t\r")
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if _, dup := seen[trimmed]; dup {
				continue
			}
			seen[trimmed] = struct{}{}
			words = append(words, trimmed)
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("%w: reading wordlist %s: %v", scanmodel.ErrMalformedInput, path, err)
		}
		return nil
	}

	if primary == "" {
		return nil, fmt.Errorf("%w: no wordlist specified", scanmodel.ErrMalformedInput)
	}
	if err := readInto(primary); err != nil {
		return nil, err
	}
	for _, extra := range additional {
		if err := readInto(extra); err != nil {
			return nil, err
		}
	}

	return words, nil
}

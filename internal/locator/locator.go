// Package locator finds route files under the search root and classifies each one.
package locator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"routeconv/internal/config"
	"routeconv/internal/logging"
	"routeconv/internal/rewrite"
)

var (
	// ErrNoSearchRoot is returned when the search root is missing or not a directory.
	ErrNoSearchRoot = errors.New("search root not found")
	// ErrInvalidEncoding marks files that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
)

// Class is the locator's verdict for one file.
type Class int

const (
	Candidate Class = iota
	Skipped
	AlreadyConverted
	NotLegacy
	Unreadable
)

func (c Class) String() string {
	switch c {
	case Candidate:
		return "candidate"
	case Skipped:
		return "skipped"
	case AlreadyConverted:
		return "already-converted"
	case NotLegacy:
		return "not-legacy"
	case Unreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Entry is one located route file.
type Entry struct {
	Path    string // absolute
	RelPath string // relative to the project root, slash separated
	Content string // empty unless the file was read
	Class   Class
	Err     error // set when Class is Unreadable
	Dir     bool  // a directory the walk could not read; not a route file
}

// Result holds every route file found, in lexical walk order.
type Result struct {
	Root    string
	Entries []Entry
}

// Candidates returns the entries that need conversion.
func (r *Result) Candidates() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Class == Candidate {
			out = append(out, e)
		}
	}
	return out
}

// Files returns the number of route files found. Unreadable directories are not counted.
func (r *Result) Files() int {
	n := 0
	for _, e := range r.Entries {
		if !e.Dir {
			n++
		}
	}
	return n
}

// Count returns the number of entries with class c.
func (r *Result) Count(c Class) int {
	n := 0
	for _, e := range r.Entries {
		if e.Class == c {
			n++
		}
	}
	return n
}

// Locator walks the search root. It has no side effects.
type Locator struct {
	cfg    config.Config
	legacy *regexp.Regexp
}

// New creates a Locator for cfg.
func New(cfg config.Config) *Locator {
	return &Locator{
		cfg:    cfg,
		legacy: rewrite.LegacyMarker(cfg.Rewrite),
	}
}

// Locate walks the search root and classifies every route file found.
func (l *Locator) Locate(ctx context.Context) (*Result, error) {
	root := l.cfg.SearchRoot()
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoSearchRoot, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoSearchRoot, root)
	}

	res := &Result{Root: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logging.LocateWarn("walk error at %s: %v", path, walkErr)
			res.Entries = append(res.Entries, Entry{
				Path:    path,
				RelPath: l.cfg.RelPath(path),
				Class:   Unreadable,
				Err:     walkErr,
				Dir:     d != nil && d.IsDir(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			rel, _ := filepath.Rel(root, path)
			if l.cfg.IsIgnoredDir(rel, d.Name()) {
				logging.LocateDebug("skipping ignored directory %s", rel)
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != l.cfg.RouteFile {
			return nil
		}
		res.Entries = append(res.Entries, l.Classify(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	logging.Locate("located %d route files under %s (%d candidates)", res.Files(), root, res.Count(Candidate))
	return res, nil
}

// Classify reads and classifies a single file. The skip set and the ignored directories are
// checked before reading, so paths that did not come from Locate get the same verdict.
func (l *Locator) Classify(path string) Entry {
	e := Entry{Path: path, RelPath: l.cfg.RelPath(path)}
	if l.cfg.IsSkipped(e.RelPath) || l.cfg.InIgnoredDir(path) {
		e.Class = Skipped
		return e
	}

	data, err := os.ReadFile(path)
	if err != nil {
		e.Class = Unreadable
		e.Err = err
		return e
	}
	if !utf8.Valid(data) {
		e.Class = Unreadable
		e.Err = ErrInvalidEncoding
		return e
	}
	e.Content = string(data)

	switch {
	case strings.Contains(e.Content, l.cfg.Rewrite.Wrapper):
		e.Class = AlreadyConverted
	case !l.legacy.MatchString(e.Content):
		e.Class = NotLegacy
	default:
		e.Class = Candidate
	}
	return e
}

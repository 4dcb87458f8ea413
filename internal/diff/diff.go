// Package diff computes line diffs between a route file and its rewritten text using the
// sergi/go-diff engine, and renders them as unified diffs for dry-run previews.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

func (t LineType) prefix() string {
	switch t {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	default:
		return " "
	}
}

// Line represents a single line in the diff
type Line struct {
	Content string
	Type    LineType
}

// Hunk represents a group of changes
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff represents changes to a single file
type FileDiff struct {
	Path  string
	Hunks []Hunk
}

// Stats counts added and removed lines across all hunks.
func (fd *FileDiff) Stats() (added, removed int) {
	for _, h := range fd.Hunks {
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// Empty reports whether the diff has no changes.
func (fd *FileDiff) Empty() bool {
	return len(fd.Hunks) == 0
}

// Engine computes line diffs.
type Engine struct {
	dmp          *diffmatchpatch.DiffMatchPatch
	contextLines int
}

// NewEngine creates a diff engine that keeps contextLines unchanged lines around each change.
func NewEngine(contextLines int) *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // accuracy over speed; route files are small
	if contextLines < 0 {
		contextLines = 0
	}
	return &Engine{dmp: dmp, contextLines: contextLines}
}

// DefaultEngine uses three lines of context.
var DefaultEngine = NewEngine(3)

// Compute creates a FileDiff between the old and new text of path.
func (e *Engine) Compute(path, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{Path: path}
	if oldContent == newContent {
		return fd
	}

	// Line-level reduction avoids hunks that split a line in two.
	a, b, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	fd.Hunks = e.group(toOperations(diffs))
	return fd
}

// Compute is a convenience function using the default engine
func Compute(path, oldContent, newContent string) *FileDiff {
	return DefaultEngine.Compute(path, oldContent, newContent)
}

// operation is one line with its position on both sides (0-based, before the line).
type operation struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

func toOperations(diffs []diffmatchpatch.Diff) []operation {
	var ops []operation
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			op := operation{oldLine: oldLine, newLine: newLine, content: line}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				op.typ = LineContext
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				op.typ = LineRemoved
				oldLine++
			case diffmatchpatch.DiffInsert:
				op.typ = LineAdded
				newLine++
			}
			ops = append(ops, op)
		}
	}
	return ops
}

// group collects changed lines into hunks, merging changes separated by at most
// twice the context width.
func (e *Engine) group(ops []operation) []Hunk {
	var hunks []Hunk
	n := len(ops)
	i := 0
	for i < n {
		if ops[i].typ == LineContext {
			i++
			continue
		}
		start := i - e.contextLines
		if start < 0 {
			start = 0
		}
		end := i // last change index in this hunk
		for j := i + 1; j < n; j++ {
			if ops[j].typ == LineContext {
				if j-end > 2*e.contextLines {
					break
				}
				continue
			}
			end = j
		}
		stop := end + e.contextLines + 1
		if stop > n {
			stop = n
		}

		h := Hunk{OldStart: ops[start].oldLine + 1, NewStart: ops[start].newLine + 1}
		for _, op := range ops[start:stop] {
			h.Lines = append(h.Lines, Line{Content: op.content, Type: op.typ})
			if op.typ != LineAdded {
				h.OldCount++
			}
			if op.typ != LineRemoved {
				h.NewCount++
			}
		}
		// Unified format numbers an empty side by the line before it.
		if h.OldCount == 0 {
			h.OldStart--
		}
		if h.NewCount == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}

// Unified renders fd in unified diff format. An empty diff renders as "".
func Unified(fd *FileDiff) string {
	if fd == nil || fd.Empty() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", fd.Path, fd.Path)
	for _, h := range fd.Hunks {
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n", hunkRange(h.OldStart, h.OldCount), hunkRange(h.NewStart, h.NewCount))
		for _, l := range h.Lines {
			sb.WriteString(l.Type.prefix())
			sb.WriteString(l.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hunkRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

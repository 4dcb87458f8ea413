// Package sink persists rewritten route files.
package sink

import (
	"fmt"
	"io/fs"
	"os"

	"routeconv/internal/diff"
	"routeconv/internal/logging"
)

// Outcome describes what a Commit did.
type Outcome struct {
	Written    bool
	BackupPath string
	Diff       *diff.FileDiff
}

// Sink commits a file's rewritten text.
type Sink interface {
	Commit(path, original, rewritten string) (Outcome, error)
}

// FileSink writes a backup of the original beside the file, then overwrites the file.
// The two writes are not atomic; the backup always lands first.
type FileSink struct {
	Suffix string
}

// NewFileSink creates a FileSink that names backups path+suffix.
func NewFileSink(suffix string) *FileSink {
	return &FileSink{Suffix: suffix}
}

func (s *FileSink) Commit(path, original, rewritten string) (Outcome, error) {
	if original == rewritten {
		return Outcome{}, nil
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	backup := path + s.Suffix
	if err := os.WriteFile(backup, []byte(original), mode); err != nil {
		return Outcome{}, fmt.Errorf("write backup %s: %w", backup, err)
	}
	logging.SinkDebug("backup written: %s", backup)

	if err := os.WriteFile(path, []byte(rewritten), mode); err != nil {
		return Outcome{BackupPath: backup}, fmt.Errorf("write %s: %w", path, err)
	}
	logging.Sink("converted %s (%d -> %d bytes)", path, len(original), len(rewritten))
	return Outcome{Written: true, BackupPath: backup}, nil
}

// DryRunSink never touches the filesystem; it reports the change as a diff.
type DryRunSink struct {
	engine *diff.Engine
	label  func(path string) string
}

// NewDryRunSink creates a DryRunSink. label maps a path to the name shown in diff headers;
// nil shows the path unchanged.
func NewDryRunSink(label func(path string) string) *DryRunSink {
	if label == nil {
		label = func(p string) string { return p }
	}
	return &DryRunSink{engine: diff.DefaultEngine, label: label}
}

func (s *DryRunSink) Commit(path, original, rewritten string) (Outcome, error) {
	if original == rewritten {
		return Outcome{}, nil
	}
	fd := s.engine.Compute(s.label(path), original, rewritten)
	added, removed := fd.Stats()
	logging.SinkDebug("dry run: %s +%d -%d", path, added, removed)
	return Outcome{Diff: fd}, nil
}

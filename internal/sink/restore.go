package sink

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"routeconv/internal/logging"
)

// RestoreOptions controls Restore.
type RestoreOptions struct {
	Keep   bool // leave backup files in place after restoring
	DryRun bool // report what would be restored without writing
}

// Restored pairs a restored file with the backup it came from.
type Restored struct {
	Path       string
	BackupPath string
}

// Restore copies every backup under root (files ending in suffix) back over its original.
// Backups are removed afterwards unless opts.Keep is set. Per-file failures are collected and
// returned together after the walk.
func Restore(ctx context.Context, root, suffix string, opts RestoreOptions) ([]Restored, error) {
	if suffix == "" {
		return nil, fmt.Errorf("restore: empty backup suffix")
	}

	var backups []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) && d.Name() != suffix {
			backups = append(backups, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("restore walk %s: %w", root, err)
	}

	var restored []Restored
	var failures []string
	for _, backup := range backups {
		target := strings.TrimSuffix(backup, suffix)
		if opts.DryRun {
			restored = append(restored, Restored{Path: target, BackupPath: backup})
			continue
		}
		if err := restoreOne(backup, target, opts.Keep); err != nil {
			logging.SinkError("restore %s: %v", target, err)
			failures = append(failures, fmt.Sprintf("%s: %v", target, err))
			continue
		}
		logging.Sink("restored %s", target)
		restored = append(restored, Restored{Path: target, BackupPath: backup})
	}

	if len(failures) > 0 {
		return restored, fmt.Errorf("restore failed for %d file(s): %s", len(failures), strings.Join(failures, "; "))
	}
	return restored, nil
}

func restoreOne(backup, target string, keep bool) error {
	data, err := os.ReadFile(backup)
	if err != nil {
		return err
	}
	info, err := os.Stat(backup)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if ti, err := os.Stat(target); err == nil {
		mode = ti.Mode().Perm()
	}
	if err := os.WriteFile(target, data, mode); err != nil {
		return err
	}
	if keep {
		return nil
	}
	return os.Remove(backup)
}

package main

import (
	"fmt"

	"routeconv/internal/sink"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var restoreKeep bool

// restoreCmd undoes a conversion run from its backups
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore converted route files from their backups",
	Long: `Copies every backup (route.ts.backup by default) under the search directory back
over its original file. Backups are deleted afterwards unless --keep is given.
With --dry-run the files that would be restored are listed only.`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	restored, err := sink.Restore(ctx, cfg.SearchRoot(), cfg.BackupSuffix, sink.RestoreOptions{
		Keep:   restoreKeep,
		DryRun: dryRun,
	})

	out := cmd.OutOrStdout()
	verb, summary := "Restored", "restored"
	if dryRun {
		verb, summary = "Would restore", "to restore"
	}
	for _, r := range restored {
		fmt.Fprintf(out, "%s %s\n", verb, cfg.RelPath(r.Path))
	}
	fmt.Fprintf(out, "%d file(s) %s\n", len(restored), summary)
	logger.Info("Restore finished", zap.Int("files", len(restored)), zap.Bool("keep", restoreKeep), zap.Error(err))
	return err
}

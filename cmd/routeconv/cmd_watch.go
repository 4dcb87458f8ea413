package main

import (
	"context"

	"routeconv/internal/migrate"
	"routeconv/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd keeps converting route files as they change
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert route files as they are created or edited",
	Long: `Watches the search directory and converts route files whenever they are created
or saved. Changes are debounced (watch.debounce in the config, 500ms by default)
and converted one batch at a time. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}

	runner := migrate.NewRunner(cfg, migrate.Options{
		DryRun: dryRun,
		Color:  !noColor,
		Out:    cmd.OutOrStdout(),
	})
	defer runner.Close()

	w, err := watch.New(watch.Options{
		Root:         cfg.SearchRoot(),
		RouteFile:    cfg.RouteFile,
		BackupSuffix: cfg.BackupSuffix,
		IgnoreDirs:   cfg.IgnoreDirs,
		Debounce:     debounce,
	}, func(ctx context.Context, paths []string) {
		rep, err := runner.ConvertPaths(ctx, paths)
		if err != nil {
			logger.Warn("Watch batch interrupted", zap.Error(err))
			return
		}
		logger.Info("Watch batch converted",
			zap.String("run", rep.RunID),
			zap.Int("files", len(paths)),
			zap.Int("converted", rep.Converted()),
			zap.Int("failed", len(rep.Failures())))
	})
	if err != nil {
		return err
	}

	logger.Info("Watching for route changes", zap.String("root", cfg.SearchRoot()), zap.Duration("debounce", debounce))
	err = w.Run(ctx)
	st := w.Stats()
	logger.Info("Watch stopped",
		zap.Int("events", st.Events),
		zap.Int("batches", st.Batches),
		zap.Int("errors", st.Errors),
		zap.String("last_path", st.LastEventPath))
	return err
}

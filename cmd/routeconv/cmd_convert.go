package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"routeconv/internal/locator"
	"routeconv/internal/migrate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// convertCmd converts every route file under the search directory
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert legacy route handlers (default command)",
	Long: `Finds every route.ts under the search directory and converts legacy handlers.

Files in the skip set, files already using asyncHandler and files without
exported async GET/POST/PUT/DELETE/PATCH handlers are left alone. Failures are
reported per file; the run always completes. Use --fail-on-error to exit 1
when any file failed, and --dry-run to preview the changes as diffs.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

// scanCmd reports what convert would do without rewriting anything
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List route files and how each would be treated",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	runner := migrate.NewRunner(cfg, migrate.Options{
		DryRun: dryRun,
		Color:  !noColor,
		Out:    cmd.OutOrStdout(),
	})
	defer runner.Close()

	rep, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("conversion aborted: %w", err)
	}
	logger.Info("Conversion finished",
		zap.String("run", rep.RunID),
		zap.Int("found", rep.Found),
		zap.Int("converted", rep.Converted()),
		zap.Int("failed", len(rep.Failures())),
		zap.Bool("dry_run", rep.DryRun))

	if failOnError && rep.HasFailures() {
		return errFailures
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	res, err := locator.New(cfg).Locate(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range res.Entries {
		if e.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t%v\n", e.Class, e.RelPath, e.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", e.Class, e.RelPath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d route files, %d to convert, %d already converted, %d skipped, %d unreadable\n",
		res.Files(),
		res.Count(locator.Candidate),
		res.Count(locator.AlreadyConverted),
		res.Count(locator.Skipped),
		res.Count(locator.Unreadable))
	logger.Debug("Scan finished", zap.String("root", res.Root), zap.Int("entries", len(res.Entries)))
	return nil
}

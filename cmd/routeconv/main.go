package main

import (
	"errors"
	"fmt"
	"os"

	"routeconv/internal/config"
	"routeconv/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	projectRoot string
	searchDir   string
	skipPaths   []string
	noColor     bool
	dryRun      bool
	failOnError bool

	// Resolved configuration
	cfg config.Config

	// Logger
	logger = zap.NewNop()
)

// errFailures is returned by commands run with --fail-on-error when any file failed.
var errFailures = errors.New("one or more files failed")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "routeconv",
	Short: "Convert Next.js API route handlers to the asyncHandler pattern",
	Long: `routeconv rewrites legacy Next.js App Router handlers

  export async function GET(request) { try { ... } catch (e) { ... } }

into wrapped handlers

  export const GET = asyncHandler(async (request) => { ... });

Each converted file is backed up beside the original (route.ts.backup).
Run without a sub-command to convert every route file under the search directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveConfig()
		if err != nil {
			return err
		}
		cfg = c

		l, err := logging.Initialize(logging.Options{
			Level:    cfg.Logging.Level,
			Encoding: cfg.Logging.Encoding,
			Verbose:  verbose,
		})
		if err != nil {
			return err
		}
		logger = l
		logging.BootDebug("config resolved: root=%s search=%s skip=%d", cfg.ProjectRoot, cfg.SearchDir, len(cfg.SkipPaths))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runConvert,
}

// resolveConfig loads the config file (or defaults) and applies flag overrides.
func resolveConfig() (config.Config, error) {
	c := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		c = loaded
	}
	if projectRoot != "" {
		c.ProjectRoot = projectRoot
	}
	if searchDir != "" {
		c.SearchDir = searchDir
	}
	if len(skipPaths) > 0 {
		c.SkipPaths = append([]string(nil), skipPaths...)
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: built-in settings)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project-root", "", "Project root; reported paths are relative to it")
	rootCmd.PersistentFlags().StringVar(&searchDir, "search-dir", "", "Directory searched for route files, relative to the project root")
	rootCmd.PersistentFlags().StringSliceVar(&skipPaths, "skip", nil, "Relative path fragment to leave untouched (repeatable; replaces the configured skip set)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show diffs without writing files")
	rootCmd.PersistentFlags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when any file fails")

	restoreCmd.Flags().BoolVar(&restoreKeep, "keep", false, "Keep backup files after restoring")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

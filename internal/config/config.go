package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate when a required field is missing.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all routeconv configuration.
// The defaults reproduce the conventions of the codebase the tool was written for.
type Config struct {
	// ProjectRoot is the repository root; relative paths (skip set, log output) are computed from it.
	ProjectRoot string `yaml:"project_root"`

	// SearchDir is searched recursively for route files. Relative values are joined to ProjectRoot.
	SearchDir string `yaml:"search_dir"`

	// RouteFile is the conventional route handler filename.
	RouteFile string `yaml:"route_file"`

	// SkipPaths excludes any file whose relative path contains one of these entries.
	SkipPaths []string `yaml:"skip_paths"`

	// IgnoreDirs are directories never descended into: names, paths relative to the search
	// root, or globs.
	IgnoreDirs []string `yaml:"ignore_dirs"`

	// BackupSuffix is appended to the original path for the pre-conversion copy.
	BackupSuffix string `yaml:"backup_suffix"`

	Rewrite RewriteConfig `yaml:"rewrite"`
	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`
}

// RewriteConfig names the identifiers the rewriter looks for and emits.
type RewriteConfig struct {
	Wrapper        string   `yaml:"wrapper"`         // asyncHandler
	WrapperImport  string   `yaml:"wrapper_import"`  // import line inserted before the first import
	Verbs          []string `yaml:"verbs"`           // exported handler names
	LegacyResponse string   `yaml:"legacy_response"` // NextResponse
	Response       string   `yaml:"response"`        // Response
	ResponseMethod string   `yaml:"response_method"` // json
	RequestType    string   `yaml:"request_type"`    // NextRequest
	ServerModule   string   `yaml:"server_module"`   // next/server
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // console, json
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the configuration matching the original conversion run.
func DefaultConfig() Config {
	return Config{
		ProjectRoot: "/home/user/buenasv2",
		SearchDir:   "app/api",
		RouteFile:   "route.ts",
		SkipPaths: []string{
			"app/api/settings/database/backup/route.ts",
			"app/api/settings/database/restore/route.ts",
			"app/api/upload/route.ts",
		},
		IgnoreDirs:   []string{"node_modules", ".next", ".git"},
		BackupSuffix: ".backup",
		Rewrite: RewriteConfig{
			Wrapper:        "asyncHandler",
			WrapperImport:  "import { asyncHandler } from '@/lib/api-error';",
			Verbs:          []string{"GET", "POST", "PUT", "DELETE", "PATCH"},
			LegacyResponse: "NextResponse",
			Response:       "Response",
			ResponseMethod: "json",
			RequestType:    "NextRequest",
			ServerModule:   "next/server",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// Load reads a YAML config file over the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes the config as YAML, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Validate checks that the fields the pipeline depends on are set.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ProjectRoot) == "":
		return fmt.Errorf("%w: project_root is empty", ErrInvalidConfig)
	case strings.TrimSpace(c.RouteFile) == "":
		return fmt.Errorf("%w: route_file is empty", ErrInvalidConfig)
	case strings.TrimSpace(c.BackupSuffix) == "":
		return fmt.Errorf("%w: backup_suffix is empty", ErrInvalidConfig)
	case c.Rewrite.Wrapper == "":
		return fmt.Errorf("%w: rewrite.wrapper is empty", ErrInvalidConfig)
	case len(c.Rewrite.Verbs) == 0:
		return fmt.Errorf("%w: rewrite.verbs is empty", ErrInvalidConfig)
	case c.Rewrite.LegacyResponse == "" || c.Rewrite.Response == "":
		return fmt.Errorf("%w: rewrite.legacy_response and rewrite.response are required", ErrInvalidConfig)
	}
	for _, s := range c.SkipPaths {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: skip_paths contains an empty entry", ErrInvalidConfig)
		}
	}
	return nil
}

// SearchRoot returns the absolute directory searched for route files.
func (c Config) SearchRoot() string {
	if filepath.IsAbs(c.SearchDir) {
		return filepath.Clean(c.SearchDir)
	}
	return filepath.Join(c.ProjectRoot, c.SearchDir)
}

// RelPath returns path relative to the project root using forward slashes.
// Paths outside the root are returned unchanged.
func (c Config) RelPath(path string) string {
	rel, err := filepath.Rel(c.ProjectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// IsSkipped reports whether rel contains any skip-set entry as a substring.
func (c Config) IsSkipped(rel string) bool {
	for _, skip := range c.SkipPaths {
		if strings.Contains(rel, skip) {
			return true
		}
	}
	return false
}

// DebounceDuration parses Watch.Debounce, falling back to 500ms when unset.
func (c Config) DebounceDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Watch.Debounce) == "" {
		return 500 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("%w: watch.debounce: %v", ErrInvalidConfig, err)
	}
	return d, nil
}

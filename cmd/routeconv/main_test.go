package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"routeconv/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const legacyRoute = "import { NextResponse } from 'next/server';\n\n" +
	"export async function GET(request) { try { return NextResponse.json({ok:true}); } catch (e) { return NextResponse.json({error:true}); } }\n"

// setupProject resets the global flags and points cfg at a fresh project tree.
func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	logger = zap.NewNop()
	verbose, noColor, dryRun, failOnError, restoreKeep, configForce = false, true, false, false, false, false
	configPath, projectRoot, searchDir, skipPaths = "", "", "", nil

	cfg = config.DefaultConfig()
	cfg.ProjectRoot = root
	t.Cleanup(func() { dryRun, failOnError, restoreKeep, configForce = false, false, false, false })
	return root
}

func writeRoute(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRunConvert(t *testing.T) {
	root := setupProject(t)
	path := writeRoute(t, root, "app/api/items/route.ts", legacyRoute)

	output := captureOutput(t, func() {
		if err := runConvert(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runConvert returned error: %v", err)
		}
	})

	if !strings.Contains(output, "✨ Converted successfully: app/api/items/route.ts") {
		t.Fatalf("expected success line, got: %s", output)
	}
	if !strings.Contains(readFile(t, path), "export const GET = asyncHandler(") {
		t.Fatal("file was not converted")
	}
	if readFile(t, path+".backup") != legacyRoute {
		t.Fatal("backup does not hold the original")
	}
}

func TestRunConvert_DryRun(t *testing.T) {
	root := setupProject(t)
	dryRun = true
	path := writeRoute(t, root, "app/api/items/route.ts", legacyRoute)

	output := captureOutput(t, func() {
		if err := runConvert(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runConvert returned error: %v", err)
		}
	})

	if !strings.Contains(output, "+export const GET = asyncHandler(") {
		t.Fatalf("expected diff preview, got: %s", output)
	}
	if readFile(t, path) != legacyRoute {
		t.Fatal("dry run modified the file")
	}
}

func TestRunConvert_FailOnError(t *testing.T) {
	root := setupProject(t)
	writeRoute(t, root, "app/api/bad/route.ts", "export async function GET() { return '\xff'; }")

	captureOutput(t, func() {
		if err := runConvert(&cobra.Command{}, nil); err != nil {
			t.Fatalf("failures must not fail the run by default: %v", err)
		}
	})

	failOnError = true
	captureOutput(t, func() {
		if err := runConvert(&cobra.Command{}, nil); !errors.Is(err, errFailures) {
			t.Fatalf("expected errFailures, got %v", err)
		}
	})
}

func TestRunScan(t *testing.T) {
	root := setupProject(t)
	writeRoute(t, root, "app/api/items/route.ts", legacyRoute)
	writeRoute(t, root, "app/api/upload/route.ts", legacyRoute)

	output := captureOutput(t, func() {
		if err := runScan(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runScan returned error: %v", err)
		}
	})

	for _, want := range []string{"candidate", "app/api/items/route.ts", "skipped", "2 route files, 1 to convert"} {
		if !strings.Contains(output, want) {
			t.Errorf("scan output missing %q: %s", want, output)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "app/api/items/route.ts.backup")); !os.IsNotExist(err) {
		t.Error("scan must not write")
	}
}

func TestRunRestore(t *testing.T) {
	root := setupProject(t)
	path := writeRoute(t, root, "app/api/items/route.ts", legacyRoute)

	captureOutput(t, func() {
		if err := runConvert(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runConvert returned error: %v", err)
		}
	})
	output := captureOutput(t, func() {
		if err := runRestore(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runRestore returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Restored app/api/items/route.ts") {
		t.Fatalf("expected restore line, got: %s", output)
	}
	if readFile(t, path) != legacyRoute {
		t.Fatal("original content not restored")
	}
}

func TestResolveConfig(t *testing.T) {
	setupProject(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "routeconv.yaml")
	if err := os.WriteFile(file, []byte("project_root: /srv/app\nsearch_dir: src/api\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	configPath = file
	skipPaths = []string{"app/api/legacy"}
	c, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig returned error: %v", err)
	}
	if c.ProjectRoot != "/srv/app" || c.SearchDir != "src/api" {
		t.Errorf("file values not applied: %+v", c)
	}
	if len(c.SkipPaths) != 1 || c.SkipPaths[0] != "app/api/legacy" {
		t.Errorf("--skip should replace the skip set, got %v", c.SkipPaths)
	}

	projectRoot = "/other"
	c, err = resolveConfig()
	if err != nil {
		t.Fatal(err)
	}
	if c.ProjectRoot != "/other" {
		t.Errorf("flag should override file, got %s", c.ProjectRoot)
	}

	configPath = filepath.Join(dir, "missing.yaml")
	if _, err := resolveConfig(); err == nil {
		t.Error("expected error for missing config file")
	}
	configPath, projectRoot, skipPaths = "", "", nil
}

func TestConfigInit(t *testing.T) {
	setupProject(t)
	path := filepath.Join(t.TempDir(), "routeconv.yaml")

	output := captureOutput(t, func() {
		if err := runConfigInit(&cobra.Command{}, []string{path}); err != nil {
			t.Fatalf("runConfigInit returned error: %v", err)
		}
	})
	if !strings.Contains(output, "Wrote "+path) {
		t.Fatalf("unexpected output: %s", output)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if loaded.SearchDir != "app/api" {
		t.Errorf("unexpected search dir %q", loaded.SearchDir)
	}

	if err := runConfigInit(&cobra.Command{}, []string{path}); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	configForce = true
	captureOutput(t, func() {
		if err := runConfigInit(&cobra.Command{}, []string{path}); err != nil {
			t.Fatalf("--force should overwrite: %v", err)
		}
	})
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}

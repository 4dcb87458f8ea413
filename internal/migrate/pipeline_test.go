package migrate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"routeconv/internal/config"
	"routeconv/internal/report"
	"routeconv/internal/sink"

	"github.com/stretchr/testify/require"
)

const scenarioA = "import { NextResponse } from 'next/server';\n\n" +
	"export async function GET(request) { try { return NextResponse.json({ok:true}); } catch (e) { return NextResponse.json({error:true}); } }\n"

const scenarioB = "import { NextRequest, NextResponse } from 'next/server';\n\n" +
	"export async function POST(request: NextRequest) {\n" +
	"  const body = await request.json();\n" +
	"  return NextResponse.json(body);\n" +
	"}\n"

const scenarioC = "import { asyncHandler } from '@/lib/api-error';\n\n" +
	"export const GET = asyncHandler(async () => Response.json({}));\n"

const scenarioD = "import { NextResponse } from 'next/server';\n\n" +
	"export async function PUT(request) {\n" +
	"  try {\n" +
	"    const data = await request.json();\n" +
	"    return NextResponse.json(data);\n" +
	"  } catch (error) {\n" +
	"    if (error) {\n" +
	"      if (error.code) {\n" +
	"        return NextResponse.json({ code: error.code }, { status: 400 });\n" +
	"      }\n" +
	"    }\n" +
	"    return NextResponse.json({ error: 'failed' }, { status: 500 });\n" +
	"  }\n" +
	"}\n"

type fixture struct {
	t    *testing.T
	root string
	cfg  config.Config
}

func newFixture(t *testing.T) *fixture {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ProjectRoot = root
	return &fixture{t: t, root: root, cfg: cfg}
}

func (f *fixture) write(rel, content string) string {
	f.t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) read(rel string) string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(rel)))
	return err == nil
}

func (f *fixture) run(opts Options) (*report.Report, string) {
	f.t.Helper()
	var out bytes.Buffer
	opts.Out = &out
	r := NewRunner(f.cfg, opts)
	defer r.Close()
	rep, err := r.Run(context.Background())
	require.NoError(f.t, err)
	return rep, out.String()
}

func statusOf(rep *report.Report, rel string) report.Status {
	for _, r := range rep.Results {
		if r.RelPath == rel {
			return r.Status
		}
	}
	return ""
}

func TestRun_ScenarioA(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/items/route.ts", scenarioA)

	rep, out := f.run(Options{})
	require.Equal(t, report.StatusSuccess, statusOf(rep, "app/api/items/route.ts"))
	require.Equal(t, "import { asyncHandler } from '@/lib/api-error';\n"+
		"export const GET = asyncHandler(async (request) => { return Response.json({ok:true}); });\n",
		f.read("app/api/items/route.ts"))
	require.Equal(t, scenarioA, f.read("app/api/items/route.ts.backup"), "backup holds the original verbatim")

	require.Contains(t, out, "🔄 Converting: app/api/items/route.ts\n")
	require.Contains(t, out, "✨ Converted successfully: app/api/items/route.ts\n")
	require.Contains(t, out, "Successfully converted: 1\n")
	require.NotEmpty(t, rep.RunID)
}

func TestRun_ScenarioB(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/orders/route.ts", scenarioB)

	f.run(Options{})
	got := f.read("app/api/orders/route.ts")
	require.True(t, strings.HasPrefix(got,
		"import { asyncHandler } from '@/lib/api-error';\nimport { NextRequest } from 'next/server';\n"), got)
	require.NotContains(t, got, "NextResponse")
	require.Contains(t, got, "export const POST = asyncHandler(async (request: NextRequest) => {\n")
}

func TestRun_ScenarioC(t *testing.T) {
	f := newFixture(t)
	path := f.write("app/api/done/route.ts", scenarioC)
	before, err := os.Stat(path)
	require.NoError(t, err)

	rep, out := f.run(Options{})
	require.Equal(t, report.StatusAlreadyConverted, statusOf(rep, "app/api/done/route.ts"))
	require.False(t, f.exists("app/api/done/route.ts.backup"))
	require.Equal(t, scenarioC, f.read("app/api/done/route.ts"))
	after, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
	require.Contains(t, out, "✅ Already converted: app/api/done/route.ts\n")
	require.Equal(t, 0, rep.NeedingConversion)
}

func TestRun_ScenarioD_NestedCatchIsUnwrapped(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/nested/route.ts", scenarioD)

	rep, _ := f.run(Options{})
	require.Equal(t, report.StatusSuccess, statusOf(rep, "app/api/nested/route.ts"))
	require.Equal(t, "import { asyncHandler } from '@/lib/api-error';\n"+
		"export const PUT = asyncHandler(async (request) => {\n"+
		"  const data = await request.json();\n"+
		"  return Response.json(data);\n"+
		"});\n",
		f.read("app/api/nested/route.ts"))
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/a/route.ts", scenarioA)
	f.write("app/api/b/route.ts", scenarioB)
	f.write("app/api/d/route.ts", scenarioD)

	first, _ := f.run(Options{})
	require.Equal(t, 3, first.Converted())

	converted := f.read("app/api/a/route.ts")
	second, _ := f.run(Options{})
	require.Equal(t, 0, second.Converted())
	require.Equal(t, 0, second.NeedingConversion)
	require.Equal(t, converted, f.read("app/api/a/route.ts"))
	require.Equal(t, scenarioA, f.read("app/api/a/route.ts.backup"), "second run leaves backups alone")
}

func TestRun_SkipSetExcluded(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/settings/database/backup/route.ts", scenarioA)
	f.write("app/api/upload/route.ts", scenarioA)

	rep, out := f.run(Options{})
	require.Equal(t, report.StatusSkip, statusOf(rep, "app/api/upload/route.ts"))
	require.Equal(t, report.StatusSkip, statusOf(rep, "app/api/settings/database/backup/route.ts"))
	require.Equal(t, scenarioA, f.read("app/api/upload/route.ts"))
	require.False(t, f.exists("app/api/upload/route.ts.backup"))
	require.Contains(t, out, "⏭️  Skipping: app/api/upload/route.ts\n")
	require.Contains(t, out, "Total files found: 2\n")
	require.Contains(t, out, "Files needing conversion: 0\n")
}

func TestRun_NotLegacyIgnored(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/health/route.ts", "export async function helper() {}\n")

	rep, _ := f.run(Options{})
	require.Empty(t, rep.Results)
	require.Equal(t, 1, rep.Found)
}

func TestRun_UnchangedContentNotWritten(t *testing.T) {
	f := newFixture(t)
	// The declaration is broken, so no stage can match anything.
	src := "export async function GET( {\n"
	f.write("app/api/broken/route.ts", src)

	rep, out := f.run(Options{})
	require.Equal(t, report.StatusUnchanged, statusOf(rep, "app/api/broken/route.ts"))
	require.Equal(t, src, f.read("app/api/broken/route.ts"))
	require.False(t, f.exists("app/api/broken/route.ts.backup"))
	require.Contains(t, out, "GET: declaration was not converted")
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/items/route.ts", scenarioA)

	rep, out := f.run(Options{DryRun: true})
	require.True(t, rep.DryRun)
	require.Equal(t, 1, rep.Converted())
	require.Equal(t, scenarioA, f.read("app/api/items/route.ts"))
	require.False(t, f.exists("app/api/items/route.ts.backup"))
	require.Contains(t, out, "✨ Would convert: app/api/items/route.ts\n--- a/app/api/items/route.ts\n")
	require.Contains(t, out, "+export const GET = asyncHandler(")
}

type failingSink struct{}

func (failingSink) Commit(string, string, string) (sink.Outcome, error) {
	return sink.Outcome{}, errors.New("disk full")
}

func TestRun_FailureContinues(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/a/route.ts", scenarioA)
	f.write("app/api/b/route.ts", scenarioB)

	var out bytes.Buffer
	r := NewRunner(f.cfg, Options{Out: &out}).WithSink(failingSink{})
	defer r.Close()
	rep, err := r.Run(context.Background())
	require.NoError(t, err, "per-file failures never fail the run")

	require.Len(t, rep.Failures(), 2)
	require.Contains(t, out.String(), "Failed: 2\n")
	require.Contains(t, out.String(), "Failed files:\n  - "+filepath.Join(f.root, "app", "api", "a", "route.ts")+": commit: disk full\n")
}

func TestRun_CancelledBetweenFiles(t *testing.T) {
	f := newFixture(t)
	f.write("app/api/a/route.ts", scenarioA)

	r := NewRunner(f.cfg, Options{})
	defer r.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, scenarioA, f.read("app/api/a/route.ts"))
}

func TestRun_MissingRoot(t *testing.T) {
	f := newFixture(t)
	f.cfg.SearchDir = "does/not/exist"
	r := NewRunner(f.cfg, Options{})
	defer r.Close()
	_, err := r.Run(context.Background())
	require.Error(t, err)
}

func TestConvertPaths(t *testing.T) {
	f := newFixture(t)
	b := f.write("app/api/b/route.ts", scenarioB)
	a := f.write("app/api/a/route.ts", scenarioA)
	c := f.write("app/api/c/route.ts", scenarioC)

	r := NewRunner(f.cfg, Options{})
	defer r.Close()
	rep, err := r.ConvertPaths(context.Background(), []string{b, c, a})
	require.NoError(t, err)

	var order []string
	for _, res := range rep.Results {
		order = append(order, res.RelPath+"="+string(res.Status))
	}
	require.Equal(t, []string{
		"app/api/c/route.ts=already-converted",
		"app/api/a/route.ts=success",
		"app/api/b/route.ts=success",
	}, order)
}

func TestConvertPaths_IgnoredDirectory(t *testing.T) {
	f := newFixture(t)
	f.cfg.IgnoreDirs = []string{"generated/*", "legacy/v1"}
	gen := f.write("app/api/generated/x/route.ts", scenarioA)
	old := f.write("app/api/legacy/v1/route.ts", scenarioA)
	a := f.write("app/api/a/route.ts", scenarioA)

	r := NewRunner(f.cfg, Options{})
	defer r.Close()
	rep, err := r.ConvertPaths(context.Background(), []string{gen, old, a})
	require.NoError(t, err)

	require.Equal(t, report.StatusSkip, statusOf(rep, "app/api/generated/x/route.ts"))
	require.Equal(t, report.StatusSkip, statusOf(rep, "app/api/legacy/v1/route.ts"))
	require.Equal(t, report.StatusSuccess, statusOf(rep, "app/api/a/route.ts"))
	require.Equal(t, scenarioA, f.read("app/api/generated/x/route.ts"))
	require.False(t, f.exists("app/api/legacy/v1/route.ts.backup"))
}

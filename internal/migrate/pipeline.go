// Package migrate runs the conversion pipeline: locate route files, rewrite each candidate,
// commit the result and report it.
package migrate

import (
	"context"
	"fmt"
	"io"
	"sort"

	"routeconv/internal/config"
	"routeconv/internal/locator"
	"routeconv/internal/logging"
	"routeconv/internal/report"
	"routeconv/internal/rewrite"
	"routeconv/internal/sink"

	"github.com/google/uuid"
)

// Options configures a Runner.
type Options struct {
	DryRun bool
	Color  bool
	Out    io.Writer // status lines and summary; io.Discard when nil
}

// Runner converts route files sequentially. It is not safe for concurrent use.
type Runner struct {
	cfg      config.Config
	opts     Options
	locator  *locator.Locator
	rewriter *rewrite.Rewriter
	sink     sink.Sink
	printer  *report.Printer
}

// NewRunner wires the pipeline for cfg. Callers must Close the runner.
func NewRunner(cfg config.Config, opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	var s sink.Sink = sink.NewFileSink(cfg.BackupSuffix)
	if opts.DryRun {
		s = sink.NewDryRunSink(cfg.RelPath)
	}
	return &Runner{
		cfg:      cfg,
		opts:     opts,
		locator:  locator.New(cfg),
		rewriter: rewrite.New(cfg.Rewrite),
		sink:     s,
		printer:  report.NewPrinter(opts.Out, opts.Color),
	}
}

// WithSink replaces the sink used to commit rewritten files.
func (r *Runner) WithSink(s sink.Sink) *Runner {
	r.sink = s
	return r
}

// Close releases parser resources.
func (r *Runner) Close() {
	r.rewriter.Close()
}

func (r *Runner) newReport() *report.Report {
	return &report.Report{RunID: uuid.NewString(), DryRun: r.opts.DryRun}
}

// Run locates and converts every candidate under the search root, printing the banner, one
// line per file and the summary. Per-file failures are recorded in the report, never returned.
// Cancellation is honoured between files; finished files stay converted.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	res, err := r.locator.Locate(ctx)
	if err != nil {
		return nil, err
	}

	rep := r.newReport()
	log := logging.Get(logging.CategoryReport).With("run", rep.RunID)
	log.Info("run started: root=%s dry_run=%v", res.Root, r.opts.DryRun)

	r.printer.Banner()
	rep.Found = res.Files()
	candidates := r.record(rep, res.Entries)
	rep.NeedingConversion = len(candidates)
	r.printer.Found(len(candidates))

	err = r.convertAll(ctx, rep, candidates)
	r.printer.Summary(rep)
	log.Info("run finished: found=%d candidates=%d converted=%d failed=%d",
		rep.Found, rep.NeedingConversion, rep.Converted(), len(rep.Failures()))
	return rep, err
}

// ConvertPaths classifies and converts an explicit list of files, printing status lines only.
// Paths are processed in sorted order.
func (r *Runner) ConvertPaths(ctx context.Context, paths []string) (*report.Report, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	rep := r.newReport()
	entries := make([]locator.Entry, 0, len(sorted))
	for _, p := range sorted {
		entries = append(entries, r.locator.Classify(p))
	}
	rep.Found = len(entries)
	candidates := r.record(rep, entries)
	rep.NeedingConversion = len(candidates)
	return rep, r.convertAll(ctx, rep, candidates)
}

// record prints and records non-candidate entries, returning the candidates in order.
func (r *Runner) record(rep *report.Report, entries []locator.Entry) []locator.Entry {
	var candidates []locator.Entry
	for _, e := range entries {
		var status report.Status
		switch e.Class {
		case locator.Candidate:
			candidates = append(candidates, e)
			continue
		case locator.NotLegacy:
			continue
		case locator.Skipped:
			status = report.StatusSkip
		case locator.AlreadyConverted:
			status = report.StatusAlreadyConverted
		case locator.Unreadable:
			status = report.StatusReadError
		}
		fr := report.FileResult{Path: e.Path, RelPath: e.RelPath, Status: status, Err: e.Err}
		r.printer.Status(fr, r.opts.DryRun)
		rep.Add(fr)
	}
	return candidates
}

func (r *Runner) convertAll(ctx context.Context, rep *report.Report, candidates []locator.Entry) error {
	for i, e := range candidates {
		if err := ctx.Err(); err != nil {
			logging.Get(logging.CategoryReport).Warn("run cancelled with %d file(s) remaining", len(candidates)-i)
			return err
		}
		fr := r.convert(ctx, e)
		r.printer.Status(fr, r.opts.DryRun)
		rep.Add(fr)
	}
	return nil
}

// convert rewrites and commits one candidate. Errors become a failed result.
func (r *Runner) convert(ctx context.Context, e locator.Entry) report.FileResult {
	r.printer.Status(report.FileResult{Path: e.Path, RelPath: e.RelPath, Status: report.StatusConverting}, r.opts.DryRun)

	fr := report.FileResult{Path: e.Path, RelPath: e.RelPath}
	res, err := r.rewriter.Rewrite(ctx, e.Path, e.Content)
	if err != nil {
		fr.Status = report.StatusFailed
		fr.Err = err
		return fr
	}
	fr.Notes = res.Notes
	if !res.Changed {
		fr.Status = report.StatusUnchanged
		return fr
	}

	out, err := r.sink.Commit(e.Path, e.Content, res.Text)
	if err != nil {
		fr.Status = report.StatusFailed
		fr.Err = fmt.Errorf("commit: %w", err)
		return fr
	}
	fr.Status = report.StatusSuccess
	fr.BackupPath = out.BackupPath
	fr.Diff = out.Diff
	return fr
}

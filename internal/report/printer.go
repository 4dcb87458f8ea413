package report

import (
	"fmt"
	"io"
	"strings"

	"routeconv/internal/diff"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	successColor = lipgloss.Color("#8BC34A")
	errorColor   = lipgloss.Color("#e53935")
	warningColor = lipgloss.Color("#FFC107")
	infoColor    = lipgloss.Color("#2196F3")
	mutedColor   = lipgloss.Color("#6a737d")
)

const ruleWidth = 60

type styles struct {
	title   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	muted   lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(successColor),
		failure: r.NewStyle().Foreground(errorColor).Bold(true),
		warning: r.NewStyle().Foreground(warningColor),
		info:    r.NewStyle().Foreground(infoColor),
		muted:   r.NewStyle().Foreground(mutedColor),
		added:   r.NewStyle().Foreground(successColor).TabWidth(lipgloss.NoTabConversion),
		removed: r.NewStyle().Foreground(errorColor).TabWidth(lipgloss.NoTabConversion),
	}
}

// Printer writes status lines and the run summary to w.
type Printer struct {
	w      io.Writer
	styles styles
}

// NewPrinter creates a Printer. With color false all output is plain text; otherwise the
// color profile is detected from w.
func NewPrinter(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{w: w, styles: newStyles(r)}
}

func (p *Printer) println(a ...interface{}) {
	fmt.Fprintln(p.w, a...)
}

func (p *Printer) printf(format string, a ...interface{}) {
	fmt.Fprintf(p.w, format, a...)
}

func (p *Printer) rule() {
	p.println(strings.Repeat("=", ruleWidth))
}

// Banner prints the run header.
func (p *Printer) Banner() {
	p.rule()
	p.println(p.styles.title.Render("API Route Handler Conversion Script"))
	p.println("Converting to asyncHandler pattern...")
	p.rule()
	p.println()
}

// Found prints the number of files selected for conversion.
func (p *Printer) Found(n int) {
	p.printf("Found %d files to convert\n\n", n)
}

// Status prints the line for one result. Dry-run diffs follow the success line.
func (p *Printer) Status(r FileResult, dryRun bool) {
	s := p.styles
	switch r.Status {
	case StatusSkip:
		p.printf("⏭️  %s %s\n", s.muted.Render("Skipping:"), r.RelPath)
	case StatusAlreadyConverted:
		p.printf("✅ %s %s\n", s.success.Render("Already converted:"), r.RelPath)
	case StatusConverting:
		p.printf("🔄 %s %s\n", s.info.Render("Converting:"), r.RelPath)
	case StatusSuccess:
		if dryRun {
			p.printf("✨ %s %s\n", s.success.Render("Would convert:"), r.RelPath)
			p.diff(r.Diff)
			return
		}
		p.printf("✨ %s %s\n", s.success.Render("Converted successfully:"), r.RelPath)
	case StatusUnchanged:
		p.printf("➖ %s %s\n", s.muted.Render("No changes:"), r.RelPath)
	case StatusReadError:
		p.printf("❌ %s %s: %v\n", s.failure.Render("Error reading"), r.Path, r.Err)
	case StatusFailed:
		p.printf("❌ %s %s: %v\n", s.failure.Render("Error converting"), r.Path, r.Err)
	}
}

func (p *Printer) diff(fd *diff.FileDiff) {
	text := diff.Unified(fd)
	if text == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			p.println(p.styles.info.Render(line))
		case strings.HasPrefix(line, "+"):
			p.println(p.styles.added.Render(line))
		case strings.HasPrefix(line, "-"):
			p.println(p.styles.removed.Render(line))
		default:
			p.println(line)
		}
	}
}

// Summary prints the closing block for rep.
func (p *Printer) Summary(rep *Report) {
	s := p.styles
	p.println()
	p.rule()
	p.println(s.title.Render("Conversion Summary"))
	p.rule()
	if rep.RunID != "" {
		p.printf("Run ID: %s\n", rep.RunID)
	}
	if rep.DryRun {
		p.println(s.warning.Render("Dry run: no files were written"))
	}
	p.printf("Total files found: %d\n", rep.Found)
	p.printf("Files needing conversion: %d\n", rep.NeedingConversion)
	p.printf("Successfully converted: %d\n", rep.Converted())
	failures := rep.Failures()
	p.printf("Failed: %d\n", len(failures))

	if len(failures) > 0 {
		p.println()
		p.println(s.failure.Render("Failed files:"))
		for _, f := range failures {
			p.printf("  - %s: %v\n", f.Path, f.Err)
		}
	}

	if flagged := rep.Flagged(); len(flagged) > 0 {
		p.println()
		p.println(s.warning.Render("Flagged for review:"))
		for _, f := range flagged {
			for _, n := range f.Notes {
				p.printf("  - %s: %s\n", f.RelPath, n)
			}
		}
	}

	p.println()
	p.println("✅ Conversion complete!")
	p.println()
	p.println("Note: Some files may need manual review for:")
	p.println("  - Complex try-catch blocks")
	p.println("  - Nested error handling")
	p.println("  - Custom response patterns")
}

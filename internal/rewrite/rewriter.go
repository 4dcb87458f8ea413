// Package rewrite converts legacy Next.js route handlers to the asyncHandler pattern.
//
// A Rewriter runs an ordered list of stages over a file's text:
//
//  1. import injection      - add the wrapper import before the first import
//  2. import normalization  - drop the NextResponse import, keep NextRequest
//  3. signature rewriting   - export async function GET(...) -> export const GET = asyncHandler(async (...) => ...)
//  4. response rewriting    - NextResponse.json -> Response.json
//  5. try/catch unwrapping  - replace a handler-wide try/catch with the try block's statements
//
// Stages that find nothing to do leave the text unchanged. A read-only review pass then records
// notes for anything that likely needs a human.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"routeconv/internal/config"
	"routeconv/internal/logging"
	"routeconv/internal/tsparse"
)

// ErrUnexpectedShape is returned when a try statement selected for unwrapping does not have the
// exact `try {` ... `}` boundaries the rewrite relies on.
var ErrUnexpectedShape = errors.New("unexpected try/catch shape")

// Document is the unit a stage transforms.
type Document struct {
	Path  string
	Lang  tsparse.Language
	Text  string
	Notes []string
}

// Notef records a review note for the document.
func (d *Document) Notef(format string, args ...interface{}) {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
}

// Stage is one text-to-text transformation.
type Stage interface {
	Name() string
	Apply(ctx context.Context, doc *Document) error
}

// Result is the outcome of rewriting one file.
type Result struct {
	Text    string
	Changed bool
	Applied []string // stages that changed the text, in order
	Notes   []string
}

// Rewriter applies the conversion stages. It is not safe for concurrent use.
type Rewriter struct {
	cfg    config.RewriteConfig
	parser *tsparse.Parser
	stages []Stage

	legacy   *regexp.Regexp // unconverted declarations
	residual *regexp.Regexp // remaining legacy response references
}

// New builds a Rewriter with the five conversion stages in order.
func New(cfg config.RewriteConfig) *Rewriter {
	parser := tsparse.NewParser()
	return &Rewriter{
		cfg:    cfg,
		parser: parser,
		stages: []Stage{
			newImportInjection(cfg),
			newImportNormalization(cfg),
			&signatureStage{cfg: cfg, parser: parser},
			newResponseStage(cfg),
			&unwrapStage{cfg: cfg, parser: parser},
		},
		legacy:   LegacyMarker(cfg),
		residual: regexp.MustCompile(`\b` + regexp.QuoteMeta(cfg.LegacyResponse) + `\b`),
	}
}

// Stages returns the configured stages in application order.
func (r *Rewriter) Stages() []Stage {
	return r.stages
}

// Close releases parser resources.
func (r *Rewriter) Close() {
	r.parser.Close()
}

// Rewrite runs every stage over src and audits the result.
func (r *Rewriter) Rewrite(ctx context.Context, path, src string) (*Result, error) {
	start := time.Now()
	doc := &Document{
		Path: path,
		Lang: tsparse.LanguageForPath(path),
		Text: src,
	}

	var applied []string
	for _, stage := range r.stages {
		before := doc.Text
		if err := stage.Apply(ctx, doc); err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		if doc.Text != before {
			applied = append(applied, stage.Name())
		}
	}

	if err := r.audit(ctx, doc); err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}

	logging.RewriteDebug("rewrite: %s stages=%v notes=%d in %v", path, applied, len(doc.Notes), time.Since(start))
	return &Result{
		Text:    doc.Text,
		Changed: doc.Text != src,
		Applied: applied,
		Notes:   doc.Notes,
	}, nil
}

// edit replaces src[start:end] with text.
type edit struct {
	start, end int
	text       string
}

// applyEdits applies non-overlapping edits back to front so earlier offsets stay valid.
func applyEdits(src string, edits []edit) string {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		src = src[:e.start] + e.text + src[e.end:]
	}
	return src
}

package rewrite

import (
	"context"
	"regexp"
	"strings"

	"routeconv/internal/config"
)

// LegacyMarker matches an exported async function declaration for one of the configured verbs.
func LegacyMarker(cfg config.RewriteConfig) *regexp.Regexp {
	verbs := make([]string, len(cfg.Verbs))
	for i, v := range cfg.Verbs {
		verbs[i] = regexp.QuoteMeta(v)
	}
	return regexp.MustCompile(`export\s+async\s+function\s+(` + strings.Join(verbs, "|") + `)\b`)
}

// audit records review notes on the rewritten text. It never changes the text.
func (r *Rewriter) audit(ctx context.Context, doc *Document) error {
	tree, err := r.parser.Parse(ctx, doc.Lang, doc.Text)
	if err != nil {
		return err
	}
	defer tree.Close()

	if tree.HasError() {
		doc.Notef("rewritten source has syntax errors")
	}
	for _, m := range r.legacy.FindAllStringSubmatch(doc.Text, -1) {
		doc.Notef("%s: declaration was not converted", m[1])
	}
	if n := len(r.residual.FindAllStringIndex(doc.Text, -1)); n > 0 {
		doc.Notef("%d reference(s) to %s remain (custom response patterns)", n, r.cfg.LegacyResponse)
	}
	return nil
}

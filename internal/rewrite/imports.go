package rewrite

import (
	"context"
	"fmt"
	"regexp"

	"routeconv/internal/config"
)

var firstImportLine = regexp.MustCompile(`(?m)^import\s`)

// importInjection inserts the wrapper import before the first import line.
type importInjection struct {
	wrapper string
	line    string
	present *regexp.Regexp
}

func newImportInjection(cfg config.RewriteConfig) *importInjection {
	return &importInjection{
		wrapper: cfg.Wrapper,
		line:    cfg.WrapperImport,
		present: regexp.MustCompile(`import\s*\{\s*` + regexp.QuoteMeta(cfg.Wrapper) + `\s*\}`),
	}
}

func (s *importInjection) Name() string { return "import-injection" }

func (s *importInjection) Apply(_ context.Context, doc *Document) error {
	if s.line == "" || s.present.MatchString(doc.Text) {
		return nil
	}
	loc := firstImportLine.FindStringIndex(doc.Text)
	if loc == nil {
		doc.Notef("no import statement found; %s import not added", s.wrapper)
		return nil
	}
	doc.Text = doc.Text[:loc[0]] + s.line + "\n" + doc.Text[loc[0]:]
	return nil
}

// importNormalization removes the legacy response type from the server module import.
type importNormalization struct {
	rules []importRule
}

type importRule struct {
	re   *regexp.Regexp
	repl string
}

func newImportNormalization(cfg config.RewriteConfig) *importNormalization {
	name := regexp.QuoteMeta(cfg.LegacyResponse)
	module := `['"]` + regexp.QuoteMeta(cfg.ServerModule) + `['"]`

	rules := []importRule{{
		re: regexp.MustCompile(`import\s*\{\s*` + name + `\s*\}\s*from\s*` + module + `;?\s*\n?`),
	}}
	if cfg.RequestType != "" {
		req := regexp.QuoteMeta(cfg.RequestType)
		keep := fmt.Sprintf("import { %s } from '%s';", cfg.RequestType, cfg.ServerModule)
		rules = append(rules,
			importRule{
				re:   regexp.MustCompile(`import\s*\{\s*` + req + `\s*,\s*` + name + `\s*\}\s*from\s*` + module + `;?`),
				repl: keep,
			},
			importRule{
				re:   regexp.MustCompile(`import\s*\{\s*` + name + `\s*,\s*` + req + `\s*\}\s*from\s*` + module + `;?`),
				repl: keep,
			},
		)
	}
	return &importNormalization{rules: rules}
}

func (s *importNormalization) Name() string { return "import-normalization" }

func (s *importNormalization) Apply(_ context.Context, doc *Document) error {
	for _, r := range s.rules {
		doc.Text = r.re.ReplaceAllLiteralString(doc.Text, r.repl)
	}
	return nil
}

package rewrite

import (
	"context"
	"strings"

	"routeconv/internal/config"
)

// responseStage swaps the legacy response helper for the standard one. Arguments are untouched.
type responseStage struct {
	from, to string
}

func newResponseStage(cfg config.RewriteConfig) *responseStage {
	s := &responseStage{from: cfg.LegacyResponse + ".", to: cfg.Response + "."}
	if cfg.ResponseMethod != "" {
		s.from += cfg.ResponseMethod
		s.to += cfg.ResponseMethod
	}
	return s
}

func (s *responseStage) Name() string { return "response" }

func (s *responseStage) Apply(_ context.Context, doc *Document) error {
	doc.Text = strings.ReplaceAll(doc.Text, s.from, s.to)
	return nil
}

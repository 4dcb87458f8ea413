package rewrite

import (
	"context"
	"fmt"
	"strings"

	"routeconv/internal/config"
	"routeconv/internal/tsparse"
)

// signatureStage turns exported async verb functions into wrapper-bound arrow functions.
// Only the declaration header changes; the wrapper call is closed right after the body.
// Type parameters move onto the arrow function.
type signatureStage struct {
	cfg    config.RewriteConfig
	parser *tsparse.Parser
}

func (s *signatureStage) Name() string { return "signature" }

func (s *signatureStage) Apply(ctx context.Context, doc *Document) error {
	tree, err := s.parser.Parse(ctx, doc.Lang, doc.Text)
	if err != nil {
		return err
	}
	defer tree.Close()

	handlers := tree.FunctionHandlers(s.cfg.Verbs)
	if len(handlers) == 0 {
		return nil
	}

	src := doc.Text
	edits := make([]edit, 0, 2*len(handlers))
	for _, h := range handlers {
		ret := ""
		if !h.ReturnType.Empty() {
			ret = src[h.ReturnType.Start:h.ReturnType.End]
		}
		typeParams := ""
		if !h.TypeParams.Empty() {
			typeParams = arrowTypeParams(src[h.TypeParams.Start:h.TypeParams.End], doc.Lang)
		}
		header := fmt.Sprintf("export const %s = %s(async %s%s%s => ",
			h.Verb, s.cfg.Wrapper, typeParams, src[h.Params.Start:h.Params.End], ret)
		edits = append(edits,
			edit{start: h.Export.Start, end: h.Body.Start, text: header},
			edit{start: h.Body.End, end: h.Body.End, text: ");"},
		)
	}
	doc.Text = applyEdits(src, edits)
	return nil
}

// arrowTypeParams adapts a declaration's type parameter list for an arrow function. In TSX a
// lone unconstrained `<T>` reads as a JSX tag, so it gets a trailing comma.
func arrowTypeParams(tp string, lang tsparse.Language) string {
	if lang != tsparse.TSX {
		return tp
	}
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(tp, "<"), ">"))
	if strings.Contains(inner, ",") || strings.Contains(inner, "extends") {
		return tp
	}
	return "<" + inner + ",>"
}

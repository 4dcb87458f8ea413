package rewrite

import (
	"context"
	"fmt"
	"strings"

	"routeconv/internal/config"
	"routeconv/internal/tsparse"

	sitter "github.com/smacker/go-tree-sitter"
)

// unwrapStage removes a handler-wide try/catch, leaving the try block's statements as the body.
// Boundaries come from the syntax tree, so catch bodies of any nesting depth are handled.
type unwrapStage struct {
	cfg    config.RewriteConfig
	parser *tsparse.Parser
}

func (s *unwrapStage) Name() string { return "unwrap-try-catch" }

func (s *unwrapStage) Apply(ctx context.Context, doc *Document) error {
	tree, err := s.parser.Parse(ctx, doc.Lang, doc.Text)
	if err != nil {
		return err
	}
	defer tree.Close()

	src := doc.Text
	var edits []edit
	for _, h := range tree.WrappedHandlers(s.cfg.Wrapper, s.cfg.Verbs) {
		stmts := tsparse.Statements(h.Body)
		if len(stmts) == 0 || stmts[0].Type() != "try_statement" {
			continue
		}
		try := stmts[0]

		switch {
		case try.HasError():
			doc.Notef("%s: try/catch contains syntax errors; left intact", h.Verb)
			continue
		case try.ChildByFieldName("handler") == nil:
			doc.Notef("%s: try without catch; left intact", h.Verb)
			continue
		case try.ChildByFieldName("finalizer") != nil:
			doc.Notef("%s: try/catch has a finally clause; left intact", h.Verb)
			continue
		case len(stmts) > 1:
			doc.Notef("%s: statements follow the try/catch; left intact", h.Verb)
			continue
		}

		block := try.ChildByFieldName("body")
		if err := checkTryShape(src, try, block); err != nil {
			return fmt.Errorf("%s handler: %w", h.Verb, err)
		}

		var keep []tsparse.Span
		for _, tmpl := range tsparse.Descendants(block, "template_string") {
			keep = append(keep, tsparse.SpanOf(tmpl))
		}
		edits = append(edits, edit{
			start: int(try.StartByte()),
			end:   int(try.EndByte()),
			text:  unwrapBlock(src, int(try.StartByte()), tsparse.SpanOf(block), keep),
		})
	}

	if len(edits) > 0 {
		doc.Text = applyEdits(src, edits)
	}
	return nil
}

// checkTryShape asserts the exact boundaries the unwrap removes: the `try` keyword at the
// statement start and a brace-delimited block.
func checkTryShape(src string, try, block *sitter.Node) error {
	start := int(try.StartByte())
	if !strings.HasPrefix(src[start:], "try") {
		return fmt.Errorf("%w: expected try keyword at offset %d", ErrUnexpectedShape, start)
	}
	if block == nil {
		return fmt.Errorf("%w: try at offset %d has no block", ErrUnexpectedShape, start)
	}
	bs, be := int(block.StartByte()), int(block.EndByte())
	if be-bs < 2 || src[bs] != '{' || src[be-1] != '}' {
		return fmt.Errorf("%w: try block at offset %d is not brace delimited", ErrUnexpectedShape, bs)
	}
	if strings.TrimSpace(src[start+len("try"):bs]) != "" {
		return fmt.Errorf("%w: unexpected text between try and its block at offset %d", ErrUnexpectedShape, start)
	}
	return nil
}

// unwrapBlock returns the statements inside block, re-indented to the try statement's column.
// Lines that start inside a template literal keep their exact text.
func unwrapBlock(src string, tryStart int, block tsparse.Span, keep []tsparse.Span) string {
	innerStart := block.Start + 1
	inner := src[innerStart : block.End-1]

	trimmed := strings.TrimLeft(inner, " \t\r\n")
	lead := inner[:len(inner)-len(trimmed)]
	trimmed = strings.TrimRight(trimmed, " \t\r\n")
	if trimmed == "" {
		return ""
	}

	nl := strings.LastIndex(lead, "\n")
	if nl < 0 {
		// Statements start on the `try {` line; there is no indentation to infer.
		return trimmed
	}
	bodyIndent := lead[nl+1:]
	tryIndent := lineIndent(src, tryStart)

	lines := strings.Split(trimmed, "\n")
	offset := innerStart + len(lead)
	for i, line := range lines {
		lineStart := offset
		offset += len(line) + 1
		if i == 0 || insideAny(lineStart, keep) {
			continue
		}
		switch {
		case strings.TrimSpace(line) == "":
			lines[i] = ""
		case strings.HasPrefix(line, bodyIndent):
			lines[i] = tryIndent + line[len(bodyIndent):]
		}
	}
	return strings.Join(lines, "\n")
}

// lineIndent returns the whitespace between the start of pos's line and pos,
// or "" when other text precedes pos on that line.
func lineIndent(src string, pos int) string {
	i := pos - 1
	for i >= 0 && (src[i] == ' ' || src[i] == '\t') {
		i--
	}
	if i >= 0 && src[i] != '\n' {
		return ""
	}
	return src[i+1 : pos]
}

func insideAny(pos int, spans []tsparse.Span) bool {
	for _, s := range spans {
		if s.Start < pos && pos < s.End {
			return true
		}
	}
	return false
}

// Package tsparse wraps Tree-sitter for the route handler shapes routeconv rewrites.
package tsparse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"routeconv/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language selects the grammar used for a file.
type Language string

const (
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	JavaScript Language = "javascript"
)

// LanguageForPath chooses a grammar from the file extension. Unknown extensions parse as TypeScript.
func LanguageForPath(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return TSX
	case ".js", ".jsx", ".mjs", ".cjs":
		return JavaScript
	default:
		return TypeScript
	}
}

// Parser holds one Tree-sitter parser per language. It is not safe for concurrent use.
type Parser struct {
	parsers map[Language]*sitter.Parser
}

// NewParser creates a parser; grammars are loaded on first use.
func NewParser() *Parser {
	return &Parser{parsers: make(map[Language]*sitter.Parser)}
}

func (p *Parser) get(lang Language) (*sitter.Parser, error) {
	if sp, ok := p.parsers[lang]; ok {
		return sp, nil
	}
	var grammar *sitter.Language
	switch lang {
	case TypeScript:
		grammar = typescript.GetLanguage()
	case TSX:
		grammar = tsx.GetLanguage()
	case JavaScript:
		grammar = javascript.GetLanguage()
	default:
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	sp := sitter.NewParser()
	sp.SetLanguage(grammar)
	p.parsers[lang] = sp
	return sp, nil
}

// Parse builds a syntax tree for src. The caller must Close the tree.
func (p *Parser) Parse(ctx context.Context, lang Language, src string) (*Tree, error) {
	start := time.Now()
	sp, err := p.get(lang)
	if err != nil {
		return nil, err
	}
	content := []byte(src)
	tree, err := sp.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s source: %w", lang, err)
	}
	logging.RewriteDebug("tsparse: parsed %d bytes as %s in %v", len(content), lang, time.Since(start))
	return &Tree{tree: tree, src: content}, nil
}

// Close releases the parsers.
func (p *Parser) Close() {
	for lang, sp := range p.parsers {
		sp.Close()
		delete(p.parsers, lang)
	}
}

// Tree is a parsed source file.
type Tree struct {
	tree *sitter.Tree
	src  []byte
}

// Close releases the underlying tree. Nodes obtained from it become invalid.
func (t *Tree) Close() {
	t.tree.Close()
}

// Root returns the program node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// HasError reports whether the file contains syntax errors anywhere.
func (t *Tree) HasError() bool {
	return t.Root().HasError()
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *sitter.Node) string {
	return n.Content(t.src)
}

// Span is a half-open byte range into the parsed source.
type Span struct {
	Start int
	End   int
}

// SpanOf returns the byte range of n.
func SpanOf(n *sitter.Node) Span {
	return Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.End <= s.Start }

// FunctionHandler is an `export async function VERB(params)[: Ret] { ... }` declaration.
type FunctionHandler struct {
	Verb       string
	Export     Span // the whole export statement
	TypeParams Span // `<T>`; empty when the declaration is not generic
	Params     Span
	ReturnType Span // empty when the declaration has no annotation
	Body       Span
}

// FunctionHandlers returns the top-level exported async function handlers named after verbs,
// in source order. Declarations containing syntax errors are not returned.
func (t *Tree) FunctionHandlers(verbs []string) []FunctionHandler {
	var out []FunctionHandler
	for _, decl := range t.exportedDeclarations() {
		export, fn := decl[0], decl[1]
		if fn.Type() != "function_declaration" || fn.HasError() {
			continue
		}
		name := fn.ChildByFieldName("name")
		params := fn.ChildByFieldName("parameters")
		body := fn.ChildByFieldName("body")
		if name == nil || params == nil || body == nil {
			continue
		}
		verb := t.Text(name)
		if !contains(verbs, verb) || !hasKeyword(fn, "async") {
			continue
		}
		h := FunctionHandler{
			Verb:   verb,
			Export: SpanOf(export),
			Params: SpanOf(params),
			Body:   SpanOf(body),
		}
		if tp := fn.ChildByFieldName("type_parameters"); tp != nil {
			h.TypeParams = SpanOf(tp)
		}
		if ret := fn.ChildByFieldName("return_type"); ret != nil {
			h.ReturnType = SpanOf(ret)
		}
		out = append(out, h)
	}
	return out
}

// WrappedHandler is an `export const VERB = wrapper(async (...) => { ... })` declaration.
type WrappedHandler struct {
	Verb  string
	Arrow *sitter.Node
	Body  *sitter.Node // statement_block of the arrow function
}

// WrappedHandlers returns the top-level handlers bound to a call of wrapper, in source order.
func (t *Tree) WrappedHandlers(wrapper string, verbs []string) []WrappedHandler {
	var out []WrappedHandler
	for _, decl := range t.exportedDeclarations() {
		lex := decl[1]
		if lex.Type() != "lexical_declaration" {
			continue
		}
		for i := 0; i < int(lex.NamedChildCount()); i++ {
			declarator := lex.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			name := declarator.ChildByFieldName("name")
			value := declarator.ChildByFieldName("value")
			if name == nil || value == nil || value.Type() != "call_expression" {
				continue
			}
			verb := t.Text(name)
			if !contains(verbs, verb) {
				continue
			}
			callee := value.ChildByFieldName("function")
			args := value.ChildByFieldName("arguments")
			if callee == nil || args == nil || t.Text(callee) != wrapper || args.NamedChildCount() == 0 {
				continue
			}
			arrow := args.NamedChild(0)
			if arrow.Type() != "arrow_function" || !hasKeyword(arrow, "async") {
				continue
			}
			body := arrow.ChildByFieldName("body")
			if body == nil || body.Type() != "statement_block" {
				continue
			}
			out = append(out, WrappedHandler{Verb: verb, Arrow: arrow, Body: body})
		}
	}
	return out
}

// exportedDeclarations returns (export_statement, declaration) pairs at the top level.
func (t *Tree) exportedDeclarations() [][2]*sitter.Node {
	root := t.Root()
	var out [][2]*sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "export_statement" {
			continue
		}
		decl := child.ChildByFieldName("declaration")
		if decl == nil {
			continue
		}
		out = append(out, [2]*sitter.Node{child, decl})
	}
	return out
}

// Statements returns the named children of a block, skipping comments.
func Statements(block *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// Descendants returns every node below n (inclusive) whose type is typ, in source order.
func Descendants(n *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Type() == typ {
			out = append(out, node)
			return
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(n)
	return out
}

// hasKeyword reports whether an anonymous child token equals kw.
func hasKeyword(n *sitter.Node, kw string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() && child.Type() == kw {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package syntax

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseError reports a file that could not be parsed even leniently.
// It carries a best-effort position of the first unparsable region.
type ParseError struct {
	Path string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Col, e.Msg)
}

func grammar(lang Language) *sitter.Language {
	switch lang {
	case LangPython:
		return python.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangGo:
		return golang.GetLanguage()
	}
	return nil
}

// parserPools hands each goroutine its own parser per language, so
// concurrent file analysis never contends on a shared parser.
var parserPools = struct {
	mu    sync.Mutex
	pools map[Language]*sync.Pool
}{pools: make(map[Language]*sync.Pool)}

func getParser(lang Language) *sitter.Parser {
	parserPools.mu.Lock()
	pool, ok := parserPools.pools[lang]
	if !ok {
		g := grammar(lang)
		pool = &sync.Pool{New: func() any {
			p := sitter.NewParser()
			p.SetLanguage(g)
			return p
		}}
		parserPools.pools[lang] = pool
	}
	parserPools.mu.Unlock()
	return pool.Get().(*sitter.Parser)
}

func putParser(lang Language, p *sitter.Parser) {
	p.Reset()
	parserPools.mu.Lock()
	pool := parserPools.pools[lang]
	parserPools.mu.Unlock()
	pool.Put(p)
}

// Parse builds the adapted tree for one source file. It is a pure function
// of its inputs: no I/O, no shared mutable state.
//
// Tree-sitter recovers from most localized syntax errors, so files with
// recoverable quirks still parse; Parse fails with a *ParseError only when
// the majority of the file is unparsable or nothing could be recognized.
func Parse(ctx context.Context, path string, src []byte, lang Language) (*Tree, error) {
	if !Supported(lang) {
		return nil, &ParseError{Path: path, Line: 1, Col: 1, Msg: fmt.Sprintf("unsupported language %q", lang)}
	}

	parser := getParser(lang)
	defer putParser(lang, parser)

	st, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer st.Close()

	root := st.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Line: 1, Col: 1, Msg: "empty parse tree"}
	}

	if root.HasError() {
		errBytes, first := surveyErrors(root)
		if len(strings.TrimSpace(string(src))) > 0 && (root.NamedChildCount() == 0 || errBytes*2 >= len(src)) {
			line, col := 1, 1
			if first != nil {
				line = int(first.StartPoint().Row) + 1
				col = int(first.StartPoint().Column) + 1
			}
			return nil, &ParseError{Path: path, Line: line, Col: col, Msg: "file is mostly unparsable"}
		}
		// Localized errors: keep the lenient tree.
	}

	conv := converter{src: src, lang: lang}
	tree := &Tree{Path: path, Language: lang, Root: conv.node(root)}
	if tree.Root == nil {
		tree.Root = &Node{Kind: KindModule, Type: root.Type(), Span: spanOf(root)}
	}
	return tree, nil
}

// surveyErrors totals the bytes covered by ERROR nodes and returns the
// first one. Nested ERROR regions are not descended into, so bytes are
// counted once.
func surveyErrors(root *sitter.Node) (int, *sitter.Node) {
	var bytes int
	var first *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "ERROR" || n.IsMissing() {
			bytes += int(n.EndByte() - n.StartByte())
			if first == nil {
				first = n
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return bytes, first
}

func spanOf(sn *sitter.Node) Span {
	return Span{
		StartLine: int(sn.StartPoint().Row) + 1,
		StartCol:  int(sn.StartPoint().Column) + 1,
		EndLine:   int(sn.EndPoint().Row) + 1,
		EndCol:    int(sn.EndPoint().Column) + 1,
	}
}

type converter struct {
	src  []byte
	lang Language
}

func (c *converter) text(sn *sitter.Node) string {
	if sn == nil {
		return ""
	}
	return sn.Content(c.src)
}

// compactText returns node text with internal whitespace collapsed, for
// names built from multi-line expressions.
func (c *converter) compactText(sn *sitter.Node) string {
	return strings.Join(strings.Fields(c.text(sn)), "")
}

func (c *converter) node(sn *sitter.Node) *Node {
	if sn == nil {
		return nil
	}
	kind := c.kindOf(sn)
	n := &Node{Kind: kind, Type: sn.Type(), Span: spanOf(sn)}

	switch kind {
	case KindFunction:
		n.Name = c.text(sn.ChildByFieldName("name"))
		n.Children = c.namedChildren(sn)

	case KindCall:
		fn := sn.ChildByFieldName("function")
		if fn == nil {
			fn = sn.ChildByFieldName("constructor")
		}
		n.Name = c.calleeName(fn)
		// A chained receiver like "a.f(x).g()" embeds a call inside the
		// callee expression; surface it so the inner call stays analyzable.
		if inner := c.calleeCall(fn); inner != nil {
			n.Children = append(n.Children, inner)
		}
		args := sn.ChildByFieldName("arguments")
		if args != nil {
			n.Children = append(n.Children, c.namedChildren(args)...)
		}

	case KindAssignment:
		lhs, rhs := assignmentOperands(sn)
		if lhs != nil || rhs != nil {
			if l := c.node(lhs); l != nil {
				n.Children = append(n.Children, l)
			}
			if r := c.node(rhs); r != nil {
				n.Children = append(n.Children, r)
			}
		} else {
			n.Children = c.namedChildren(sn)
		}
		if op := sn.ChildByFieldName("operator"); op != nil {
			n.Name = c.text(op)
		} else {
			n.Name = "="
		}

	case KindBinaryOp, KindBooleanOp, KindUnaryOp, KindComparison:
		n.Name = c.operatorName(sn)
		n.Children = c.namedChildren(sn)

	case KindIdentifier, KindLiteral:
		n.Name = c.text(sn)

	case KindAttribute:
		// Attributes are atomic operands: "self.conn" reads as one name.
		n.Name = c.compactText(sn)

	case KindFormatString:
		n.Children = c.interpolations(sn)

	case KindSubscript:
		n.Children = c.namedChildren(sn)
		if len(n.Children) > 0 {
			n.Name = n.Children[0].Name
		}

	default:
		n.Children = c.namedChildren(sn)
	}

	return n
}

func (c *converter) namedChildren(sn *sitter.Node) []*Node {
	count := int(sn.NamedChildCount())
	if count == 0 {
		return nil
	}
	children := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		child := sn.NamedChild(i)
		if child.Type() == "comment" || child.Type() == "ERROR" {
			continue
		}
		if cn := c.node(child); cn != nil {
			children = append(children, cn)
		}
	}
	return children
}

// interpolations extracts the embedded expressions of a format string so
// taint propagates through string interpolation.
func (c *converter) interpolations(sn *sitter.Node) []*Node {
	var out []*Node
	for i := 0; i < int(sn.NamedChildCount()); i++ {
		child := sn.NamedChild(i)
		switch child.Type() {
		case "interpolation", "template_substitution":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				inner := child.NamedChild(j)
				if inner.Type() == "format_specifier" || inner.Type() == "type_conversion" {
					continue
				}
				if n := c.node(inner); n != nil {
					out = append(out, n)
				}
			}
		}
	}
	return out
}

// calleeName flattens a call's function expression into a dotted path:
// identifier -> "open", attribute chain -> "os.path.join", chained call
// "db.cursor().execute" -> "db.cursor.execute".
func (c *converter) calleeName(sn *sitter.Node) string {
	if sn == nil {
		return ""
	}
	switch sn.Type() {
	case "identifier", "property_identifier", "field_identifier":
		return c.text(sn)
	case "attribute":
		obj := c.calleeName(sn.ChildByFieldName("object"))
		attr := c.text(sn.ChildByFieldName("attribute"))
		return joinDotted(obj, attr)
	case "member_expression":
		obj := c.calleeName(sn.ChildByFieldName("object"))
		prop := c.text(sn.ChildByFieldName("property"))
		return joinDotted(obj, prop)
	case "selector_expression":
		obj := c.calleeName(sn.ChildByFieldName("operand"))
		field := c.text(sn.ChildByFieldName("field"))
		return joinDotted(obj, field)
	case "call", "call_expression":
		fn := sn.ChildByFieldName("function")
		if fn == nil {
			fn = sn.ChildByFieldName("constructor")
		}
		return c.calleeName(fn)
	case "parenthesized_expression":
		if sn.NamedChildCount() > 0 {
			return c.calleeName(sn.NamedChild(0))
		}
	}
	name := c.compactText(sn)
	if len(name) > 120 {
		name = name[:120]
	}
	return name
}

// calleeCall finds the call embedded in a callee expression, descending
// through attribute and selector chains.
func (c *converter) calleeCall(sn *sitter.Node) *Node {
	if sn == nil {
		return nil
	}
	switch sn.Type() {
	case "call", "call_expression":
		return c.node(sn)
	case "attribute":
		return c.calleeCall(sn.ChildByFieldName("object"))
	case "member_expression":
		return c.calleeCall(sn.ChildByFieldName("object"))
	case "selector_expression":
		return c.calleeCall(sn.ChildByFieldName("operand"))
	case "parenthesized_expression":
		if sn.NamedChildCount() > 0 {
			return c.calleeCall(sn.NamedChild(0))
		}
	}
	return nil
}

func joinDotted(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "." + b
	}
}

func (c *converter) operatorName(sn *sitter.Node) string {
	if op := sn.ChildByFieldName("operator"); op != nil {
		return c.text(op)
	}
	if ops := sn.ChildByFieldName("operators"); ops != nil {
		return c.text(ops)
	}
	// Fall back to the first anonymous token, which is the operator in
	// grammars without an operator field.
	for i := 0; i < int(sn.ChildCount()); i++ {
		child := sn.Child(i)
		if !child.IsNamed() {
			return c.text(child)
		}
	}
	return sn.Type()
}

// assignmentOperands resolves the left/right operands across the three
// grammars' assignment spellings.
func assignmentOperands(sn *sitter.Node) (lhs, rhs *sitter.Node) {
	lhs = sn.ChildByFieldName("left")
	rhs = sn.ChildByFieldName("right")
	if lhs == nil && rhs == nil {
		lhs = sn.ChildByFieldName("name")
		rhs = sn.ChildByFieldName("value")
	}
	return lhs, rhs
}

func (c *converter) kindOf(sn *sitter.Node) Kind {
	switch c.lang {
	case LangPython:
		return pythonKind(sn)
	case LangJavaScript:
		return javascriptKind(sn, c)
	case LangGo:
		return goKind(sn, c)
	}
	return KindOther
}

func pythonKind(sn *sitter.Node) Kind {
	switch sn.Type() {
	case "module":
		return KindModule
	case "function_definition", "lambda":
		return KindFunction
	case "call":
		return KindCall
	case "if_statement", "elif_clause", "conditional_expression", "match_statement":
		return KindConditional
	case "for_statement", "while_statement":
		return KindLoop
	case "with_statement":
		return KindWith
	case "assignment", "augmented_assignment":
		return KindAssignment
	case "binary_operator":
		return KindBinaryOp
	case "boolean_operator":
		return KindBooleanOp
	case "not_operator", "unary_operator":
		return KindUnaryOp
	case "comparison_operator":
		return KindComparison
	case "identifier":
		return KindIdentifier
	case "attribute":
		return KindAttribute
	case "subscript":
		return KindSubscript
	case "string":
		if stringHasInterpolation(sn) {
			return KindFormatString
		}
		return KindLiteral
	case "integer", "float", "true", "false", "none", "concatenated_string":
		return KindLiteral
	case "tuple", "expression_list", "pattern_list":
		return KindTuple
	case "return_statement":
		return KindReturn
	case "raise_statement":
		return KindRaise
	case "break_statement":
		return KindBreak
	case "continue_statement":
		return KindContinue
	case "try_statement":
		return KindTry
	case "except_clause":
		return KindExceptClause
	case "import_statement", "import_from_statement":
		return KindImport
	}
	return KindOther
}

func stringHasInterpolation(sn *sitter.Node) bool {
	for i := 0; i < int(sn.NamedChildCount()); i++ {
		if sn.NamedChild(i).Type() == "interpolation" {
			return true
		}
	}
	return false
}

func javascriptKind(sn *sitter.Node, c *converter) Kind {
	switch sn.Type() {
	case "program":
		return KindModule
	case "function_declaration", "function_expression", "function",
		"arrow_function", "method_definition", "generator_function",
		"generator_function_declaration":
		return KindFunction
	case "call_expression", "new_expression":
		return KindCall
	case "if_statement", "ternary_expression", "switch_statement", "switch_case":
		return KindConditional
	case "for_statement", "for_in_statement", "while_statement", "do_statement":
		return KindLoop
	case "assignment_expression", "augmented_assignment_expression", "variable_declarator":
		return KindAssignment
	case "binary_expression":
		return binaryKindFromOperator(c.operatorName(sn))
	case "unary_expression", "update_expression":
		return KindUnaryOp
	case "identifier", "property_identifier", "shorthand_property_identifier":
		return KindIdentifier
	case "member_expression":
		return KindAttribute
	case "subscript_expression":
		return KindSubscript
	case "string", "number", "regex", "true", "false", "null", "undefined":
		return KindLiteral
	case "template_string":
		return KindFormatString
	case "array":
		return KindTuple
	case "return_statement":
		return KindReturn
	case "throw_statement":
		return KindRaise
	case "break_statement":
		return KindBreak
	case "continue_statement":
		return KindContinue
	case "try_statement":
		return KindTry
	case "catch_clause":
		return KindExceptClause
	case "import_statement":
		return KindImport
	}
	return KindOther
}

func goKind(sn *sitter.Node, c *converter) Kind {
	switch sn.Type() {
	case "source_file":
		return KindModule
	case "function_declaration", "method_declaration", "func_literal":
		return KindFunction
	case "call_expression":
		return KindCall
	case "if_statement", "expression_switch_statement", "type_switch_statement", "select_statement":
		return KindConditional
	case "for_statement":
		return KindLoop
	case "assignment_statement", "short_var_declaration":
		return KindAssignment
	case "binary_expression":
		return binaryKindFromOperator(c.operatorName(sn))
	case "unary_expression":
		return KindUnaryOp
	case "identifier", "field_identifier", "package_identifier":
		return KindIdentifier
	case "selector_expression":
		return KindAttribute
	case "index_expression":
		return KindSubscript
	case "interpreted_string_literal", "raw_string_literal", "int_literal",
		"float_literal", "rune_literal", "imaginary_literal", "true", "false", "nil":
		return KindLiteral
	case "expression_list":
		return KindTuple
	case "return_statement":
		return KindReturn
	case "break_statement":
		return KindBreak
	case "continue_statement":
		return KindContinue
	case "import_declaration":
		return KindImport
	}
	return KindOther
}

// binaryKindFromOperator splits grammars that spell boolean short-circuit
// and comparison operators as generic binary expressions.
func binaryKindFromOperator(op string) Kind {
	switch op {
	case "&&", "||", "??":
		return KindBooleanOp
	case "==", "===", "!=", "!==", "<", ">", "<=", ">=":
		return KindComparison
	}
	return KindBinaryOp
}

package syntax

// Kind classifies a node in the shared, language-agnostic vocabulary.
// The set is closed: every front end maps its grammar onto these values,
// and anything without a shared meaning becomes KindOther with its
// children preserved.
type Kind int

const (
	KindOther Kind = iota
	KindModule
	KindFunction
	KindCall
	KindConditional
	KindLoop
	KindWith
	KindAssignment
	KindBinaryOp
	KindBooleanOp
	KindUnaryOp
	KindComparison
	KindIdentifier
	KindAttribute
	KindSubscript
	KindLiteral
	KindFormatString
	KindTuple
	KindReturn
	KindRaise
	KindBreak
	KindContinue
	KindTry
	KindExceptClause
	KindImport
)

var kindNames = map[Kind]string{
	KindOther:        "other",
	KindModule:       "module",
	KindFunction:     "function",
	KindCall:         "call",
	KindConditional:  "conditional",
	KindLoop:         "loop",
	KindWith:         "with",
	KindAssignment:   "assignment",
	KindBinaryOp:     "binary_op",
	KindBooleanOp:    "boolean_op",
	KindUnaryOp:      "unary_op",
	KindComparison:   "comparison",
	KindIdentifier:   "identifier",
	KindAttribute:    "attribute",
	KindSubscript:    "subscript",
	KindLiteral:      "literal",
	KindFormatString: "format_string",
	KindTuple:        "tuple",
	KindReturn:       "return",
	KindRaise:        "raise",
	KindBreak:        "break",
	KindContinue:     "continue",
	KindTry:          "try",
	KindExceptClause: "except_clause",
	KindImport:       "import",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "other"
}

// Span is a source region. Lines and columns are 1-based.
type Span struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

// Node is one node of the adapted tree. Immutable once built; its lifetime
// is bounded to a single analysis pass over one file.
//
// Name carries the node's salient text: the function name for KindFunction,
// the callee's dotted path for KindCall, the identifier or literal text for
// KindIdentifier/KindLiteral/KindAttribute, and the operator symbol for
// operator kinds.
type Node struct {
	Kind     Kind
	Type     string // raw grammar node type, for rule predicates that need it
	Name     string
	Span     Span
	Children []*Node
}

// Tree is the parsed view of one source file.
type Tree struct {
	Path     string
	Language Language
	Root     *Node
}

// Walk visits n and its descendants depth-first in source order. Returning
// false from fn skips the node's subtree.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Functions returns every function and closure node under root, outermost
// first. Nested functions are included.
func Functions(root *Node) []*Node {
	var fns []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == KindFunction {
			fns = append(fns, n)
		}
		return true
	})
	return fns
}

// IsOperator reports whether the kind counts as a Halstead operator:
// control, arithmetic, boolean, and comparison node kinds.
func (k Kind) IsOperator() bool {
	switch k {
	case KindBinaryOp, KindBooleanOp, KindUnaryOp, KindComparison,
		KindAssignment, KindConditional, KindLoop, KindCall:
		return true
	}
	return false
}

// IsOperand reports whether the kind counts as a Halstead operand.
func (k Kind) IsOperand() bool {
	switch k {
	case KindIdentifier, KindLiteral, KindAttribute:
		return true
	}
	return false
}

// IsTerminal reports whether a statement of this kind ends its block's
// control flow.
func (k Kind) IsTerminal() bool {
	switch k {
	case KindReturn, KindRaise, KindBreak, KindContinue:
		return true
	}
	return false
}

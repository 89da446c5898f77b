package taint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clay-good/reviewr/internal/catalog"
	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/syntax"
)

// Analyzer computes source-to-sink reachability over one adapted tree at a
// time. It holds only the read-only catalog and may be shared by
// concurrent workers.
type Analyzer struct {
	cat *catalog.Catalog
}

// New returns an analyzer backed by the given catalog.
func New(cat *catalog.Catalog) *Analyzer {
	return &Analyzer{cat: cat}
}

// Analyze runs one forward pass per function body (plus the module's
// top-level statements) and returns the dataflow findings.
func (a *Analyzer) Analyze(tree *syntax.Tree) []finding.Finding {
	if tree == nil || tree.Root == nil {
		return nil
	}

	var findings []finding.Finding

	// Module top level is its own scope.
	p := a.newPass(tree)
	p.walkScope(tree.Root.Children)
	findings = append(findings, p.findings...)

	for _, fn := range syntax.Functions(tree.Root) {
		p := a.newPass(tree)
		p.walkScope(fn.Children)
		findings = append(findings, p.findings...)
	}

	return findings
}

func (a *Analyzer) newPass(tree *syntax.Tree) *pass {
	return &pass{
		cat:  a.cat,
		lang: tree.Language,
		path: tree.Path,
		vars: make(map[string]*State),
	}
}

// pass is the per-scope analysis state. It lives for one function body of
// one file and is discarded afterward.
type pass struct {
	cat      *catalog.Catalog
	lang     syntax.Language
	path     string
	vars     map[string]*State
	findings []finding.Finding
}

// walkScope processes statements in source order. Nested functions are
// skipped here; each gets its own pass.
func (p *pass) walkScope(stmts []*syntax.Node) {
	for _, n := range stmts {
		p.walkStmt(n)
	}
}

func (p *pass) walkStmt(n *syntax.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case syntax.KindFunction:
		// Separate scope, separate pass.
		return

	case syntax.KindAssignment:
		p.handleAssignment(n)

	case syntax.KindConditional, syntax.KindLoop, syntax.KindTry,
		syntax.KindExceptClause, syntax.KindWith:
		// Conservative join: taint present before the construct survives
		// any clearing inside a branch, and taint introduced in any
		// branch flows out.
		before := p.snapshot()
		p.walkScope(n.Children)
		p.mergeSnapshot(before)

	default:
		if isExpression(n.Kind) {
			p.eval(n)
			return
		}
		// Statement wrapper (return, raise, blocks, expression
		// statements): evaluate children for side effects and sinks.
		for _, c := range n.Children {
			p.walkStmt(c)
		}
	}
}

func isExpression(k syntax.Kind) bool {
	switch k {
	case syntax.KindCall, syntax.KindBinaryOp, syntax.KindBooleanOp,
		syntax.KindUnaryOp, syntax.KindComparison, syntax.KindIdentifier,
		syntax.KindAttribute, syntax.KindSubscript, syntax.KindLiteral,
		syntax.KindFormatString, syntax.KindTuple:
		return true
	}
	return false
}

func (p *pass) handleAssignment(n *syntax.Node) {
	if len(n.Children) == 0 {
		return
	}
	lhs := n.Children[0]
	var st *State
	if len(n.Children) > 1 {
		st = p.eval(n.Children[1])
	}

	targets := bindingNames(lhs)
	for _, name := range targets {
		// Augmented assignment (+=, |=, ...) extends the current value, so
		// existing tags survive even when the appended part is clean.
		if n.Name != "=" {
			st = union(st, p.vars[name])
		}
		if st.Tainted() {
			step := fmt.Sprintf("%s <- tainted expression (line %d)", name, n.Span.StartLine)
			p.vars[name] = st.withChainStep(step)
		} else {
			// Overwriting with a clean value clears the binding.
			delete(p.vars, name)
		}
	}
}

// bindingNames extracts the assignable names from an assignment target:
// a plain identifier, an attribute, a subscripted name, or a tuple of
// those.
func bindingNames(lhs *syntax.Node) []string {
	if lhs == nil {
		return nil
	}
	switch lhs.Kind {
	case syntax.KindIdentifier, syntax.KindAttribute, syntax.KindSubscript:
		if lhs.Name != "" {
			return []string{lhs.Name}
		}
	case syntax.KindTuple:
		var names []string
		for _, c := range lhs.Children {
			names = append(names, bindingNames(c)...)
		}
		return names
	}
	return nil
}

// eval computes the taint state of an expression, registering sources,
// applying sanitizers, and checking sinks along the way.
func (p *pass) eval(n *syntax.Node) *State {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case syntax.KindLiteral:
		return nil

	case syntax.KindIdentifier, syntax.KindAttribute, syntax.KindSubscript:
		var st *State
		if bound, ok := p.vars[n.Name]; ok {
			st = bound.clone()
		}
		for _, c := range n.Children {
			st = union(st, p.eval(c))
		}
		if entry, ok := p.cat.MatchSource(n.Name, p.lang); ok {
			st = st.add(Origin{
				Category: entry.Category,
				SourceID: entry.ID,
				Name:     n.Name,
				Line:     n.Span.StartLine,
			})
		}
		return st

	case syntax.KindCall:
		return p.evalCall(n)

	case syntax.KindFunction:
		// Closure literal in expression position: separate scope.
		return nil

	default:
		// Arithmetic, formatting, concatenation, tuples: the result
		// carries the union of the operand tags.
		var st *State
		for _, c := range n.Children {
			st = union(st, p.eval(c))
		}
		return st
	}
}

func (p *pass) evalCall(n *syntax.Node) *State {
	argStates := make([]*State, len(n.Children))
	var merged *State
	for i, arg := range n.Children {
		argStates[i] = p.eval(arg)
		merged = union(merged, argStates[i])
	}

	if entry, ok := p.cat.MatchSink(n.Name, p.lang); ok {
		p.checkSink(entry, n, argStates)
	}

	if entry, ok := p.cat.MatchSanitizer(n.Name, p.lang); ok {
		merged = merged.clearCategories(entry.SinkCategories())
	}

	if entry, ok := p.cat.MatchSource(n.Name, p.lang); ok {
		merged = merged.add(Origin{
			Category: entry.Category,
			SourceID: entry.ID,
			Name:     n.Name,
			Line:     n.Span.StartLine,
		})
	}

	// Unknown calls preserve argument taint by default: the result is as
	// tainted as the inputs unless a sanitizer said otherwise.
	return merged
}

// checkSink emits a dataflow finding when any argument carries an origin
// tag the sink is dangerous for.
func (p *pass) checkSink(entry catalog.Entry, call *syntax.Node, argStates []*State) {
	sinkCats := entry.SinkCategories()

	var hits []Origin
	for _, st := range argStates {
		if !st.Tainted() {
			continue
		}
		for _, cat := range sinkCats {
			hits = append(hits, st.ByCategory(cat)...)
		}
	}
	if len(hits) == 0 {
		return
	}

	// Deterministic choice of the reported origin: earliest line, then
	// source id.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Line != hits[j].Line {
			return hits[i].Line < hits[j].Line
		}
		return hits[i].SourceID < hits[j].SourceID
	})
	origin := hits[0]

	msg := fmt.Sprintf("untrusted value from %s (line %d) reaches %s (line %d)",
		origin.Name, origin.Line, call.Name, call.Span.StartLine)
	if len(origin.Chain) > 0 {
		msg += " via " + strings.Join(origin.Chain, "; ")
	}

	ruleID := "taint/" + entry.ID
	p.findings = append(p.findings, finding.Finding{
		ID:         finding.NewID(ruleID, p.path, call.Span.StartLine),
		RuleID:     ruleID,
		Severity:   entry.Severity,
		Category:   finding.CategoryDataflow,
		Path:       p.path,
		Lines:      finding.LineRange{Start: call.Span.StartLine, End: call.Span.EndLine},
		Message:    msg,
		Suggestion: fmt.Sprintf("sanitize or parameterize the value before it reaches %s", call.Name),
		Confidence: 0.85,
	})
}

func (p *pass) snapshot() map[string]*State {
	snap := make(map[string]*State, len(p.vars))
	for k, v := range p.vars {
		snap[k] = v.clone()
	}
	return snap
}

// mergeSnapshot unions the pre-branch state back in: a binding tainted
// before a control construct stays tainted after it, regardless of what
// any single branch did.
func (p *pass) mergeSnapshot(before map[string]*State) {
	for name, st := range before {
		if existing, ok := p.vars[name]; ok {
			p.vars[name] = union(existing, st)
		} else {
			p.vars[name] = st
		}
	}
}

package semantic

import (
	"fmt"
	"strings"

	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/syntax"
)

// acquireReleases pairs acquisition callee suffixes with the method names
// that release what they produce. Matching is suffix-based on the dotted
// callee, so "sqlite3.connect" and "pool.connect" both count as connect.
var acquireReleases = []struct {
	acquire  string
	releases []string
}{
	{"open", []string{"close"}},
	{"connect", []string{"close", "disconnect"}},
	{"socket.socket", []string{"close"}},
	{"acquire", []string{"release"}},
	{"Lock", []string{"Unlock"}},
	{"RLock", []string{"RUnlock"}},
	{"NamedTemporaryFile", []string{"close"}},
	{"createReadStream", []string{"close", "destroy"}},
	{"createWriteStream", []string{"close", "destroy", "end"}},
}

// Detector finds resource leaks, unreachable statements, and inconsistent
// return shapes. One instance is safe for concurrent use.
type Detector struct{}

// New returns a detector.
func New() *Detector {
	return &Detector{}
}

// Analyze runs all checks over every function in the tree, plus the
// unreachable check on module-level blocks. Findings come back in source
// order within each check.
func (d *Detector) Analyze(tree *syntax.Tree) []finding.Finding {
	var out []finding.Finding
	out = append(out, d.checkUnreachable(tree)...)
	for _, fn := range syntax.Functions(tree.Root) {
		out = append(out, d.checkResourceLeaks(tree, fn)...)
		out = append(out, d.checkReturnShapes(tree, fn)...)
	}
	return out
}

// acquisition is one tracked resource binding inside a function.
type acquisition struct {
	name     string
	callee   string
	releases []string
	span     syntax.Span
}

func acquisitionReleases(callee string) ([]string, bool) {
	for _, ar := range acquireReleases {
		if callee == ar.acquire || strings.HasSuffix(callee, "."+ar.acquire) {
			return ar.releases, true
		}
	}
	return nil, false
}

// checkResourceLeaks verifies that every resource bound outside a scoped
// `with` sees its release before each exit. Exit points are explicit
// returns and raises after the acquisition, plus the function's end. A
// release inside any branch is credited to every later exit; the check is
// ordered by line, not by path, which keeps it linear and errs toward
// silence when control flow re-joins.
func (d *Detector) checkResourceLeaks(tree *syntax.Tree, fn *syntax.Node) []finding.Finding {
	var acqs []acquisition
	syntax.Walk(fn, func(n *syntax.Node) bool {
		if n != fn && n.Kind == syntax.KindFunction {
			return false
		}
		if n.Kind == syntax.KindWith {
			return false
		}
		if n.Kind != syntax.KindAssignment || len(n.Children) < 2 {
			return true
		}
		lhs, rhs := n.Children[0], n.Children[1]
		if rhs.Kind != syntax.KindCall || lhs.Name == "" {
			return true
		}
		if rels, ok := acquisitionReleases(rhs.Name); ok {
			acqs = append(acqs, acquisition{name: lhs.Name, callee: rhs.Name, releases: rels, span: n.Span})
		}
		return true
	})
	if len(acqs) == 0 {
		return nil
	}

	var out []finding.Finding
	for _, acq := range acqs {
		releaseLine := 0
		var exitLines []int
		syntax.Walk(fn, func(n *syntax.Node) bool {
			if n != fn && n.Kind == syntax.KindFunction {
				return false
			}
			if n.Span.StartLine < acq.span.StartLine {
				// Keep descending: a later statement can live inside
				// an enclosing node that starts before the binding.
				return true
			}
			switch n.Kind {
			case syntax.KindCall:
				if isReleaseCall(n, acq) && (releaseLine == 0 || n.Span.StartLine < releaseLine) {
					releaseLine = n.Span.StartLine
				}
			case syntax.KindReturn, syntax.KindRaise:
				exitLines = append(exitLines, n.Span.StartLine)
			}
			return true
		})

		leakLine := 0
		switch {
		case releaseLine == 0:
			leakLine = acq.span.StartLine
		default:
			for _, exit := range exitLines {
				if exit < releaseLine {
					leakLine = exit
					break
				}
			}
		}
		if leakLine == 0 {
			continue
		}
		f := finding.Finding{
			RuleID:   "SEM001",
			Severity: finding.SeverityMedium,
			Category: finding.CategorySemantic,
			Path:     tree.Path,
			Lines:    finding.LineRange{Start: acq.span.StartLine, End: acq.span.EndLine},
			Message: fmt.Sprintf("%q acquired via %s is not released on every exit path",
				acq.name, acq.callee),
			Suggestion: fmt.Sprintf("release %q before returning, or use a scoped acquisition", acq.name),
			Confidence: 0.75,
		}
		f.ID = finding.NewID(f.RuleID, f.Path, f.Lines.Start)
		out = append(out, f)
	}
	return out
}

func isReleaseCall(n *syntax.Node, acq acquisition) bool {
	for _, rel := range acq.releases {
		if n.Name == acq.name+"."+rel {
			return true
		}
		// Unbound release helpers like fclose(f) or mutex.Unlock().
		if (n.Name == rel || strings.HasSuffix(n.Name, "."+rel)) && callMentions(n, acq.name) {
			return true
		}
	}
	return false
}

func callMentions(call *syntax.Node, name string) bool {
	found := false
	syntax.Walk(call, func(c *syntax.Node) bool {
		if c.Kind == syntax.KindIdentifier && c.Name == name {
			found = true
		}
		return !found
	})
	return found
}

// checkUnreachable flags the first statement following a terminal in the
// same child list. One finding per dead region.
func (d *Detector) checkUnreachable(tree *syntax.Tree) []finding.Finding {
	var out []finding.Finding
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		for i, c := range n.Children {
			if !c.Kind.IsTerminal() || i == len(n.Children)-1 {
				continue
			}
			next := n.Children[i+1]
			if next.Type == "comment" || next.Kind == syntax.KindExceptClause {
				continue
			}
			f := finding.Finding{
				RuleID:     "SEM002",
				Severity:   finding.SeverityLow,
				Category:   finding.CategorySemantic,
				Path:       tree.Path,
				Lines:      finding.LineRange{Start: next.Span.StartLine, End: next.Span.EndLine},
				Message:    fmt.Sprintf("statement is unreachable after %s on line %d", c.Kind, c.Span.StartLine),
				Suggestion: "remove the dead statements or restructure the block",
				Confidence: 0.95,
			}
			f.ID = finding.NewID(f.RuleID, f.Path, f.Lines.Start)
			out = append(out, f)
			break
		}
		return true
	})
	return out
}

// returnShape classifies what a return statement yields.
func returnShape(ret *syntax.Node) string {
	if len(ret.Children) == 0 {
		return "nothing"
	}
	v := ret.Children[0]
	if v.Kind == syntax.KindTuple || v.Type == "expression_list" || v.Type == "array" {
		// Go wraps every return value list, even a lone one; a
		// one-element list is still a single value.
		if len(v.Children) == 1 {
			return "a single value"
		}
		return "a tuple"
	}
	return "a single value"
}

// checkReturnShapes flags a function whose returns disagree on shape.
func (d *Detector) checkReturnShapes(tree *syntax.Tree, fn *syntax.Node) []finding.Finding {
	shapes := map[string]bool{}
	var order []string
	var first *syntax.Node
	syntax.Walk(fn, func(n *syntax.Node) bool {
		if n != fn && n.Kind == syntax.KindFunction {
			return false
		}
		if n.Kind != syntax.KindReturn {
			return true
		}
		if first == nil {
			first = n
		}
		s := returnShape(n)
		if !shapes[s] {
			shapes[s] = true
			order = append(order, s)
		}
		return true
	})
	if len(shapes) < 2 {
		return nil
	}
	f := finding.Finding{
		RuleID:   "SEM003",
		Severity: finding.SeverityLow,
		Category: finding.CategorySemantic,
		Path:     tree.Path,
		Lines:    finding.LineRange{Start: first.Span.StartLine, End: first.Span.EndLine},
		Message: fmt.Sprintf("%s returns %s in different places",
			funcLabel(fn), strings.Join(order, ", then ")),
		Suggestion: "make every return yield the same shape",
		Confidence: 0.7,
	}
	f.ID = finding.NewID(f.RuleID, f.Path, f.Lines.Start)
	return []finding.Finding{f}
}

func funcLabel(fn *syntax.Node) string {
	if fn.Name == "" {
		return "anonymous function"
	}
	return fmt.Sprintf("function %q", fn.Name)
}

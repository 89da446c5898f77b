package security

import (
	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/syntax"
)

// Scanner matches the registered rules against every node of a tree.
type Scanner struct {
	reg *Registry
}

// New returns a scanner over the default registry.
func New() *Scanner {
	return &Scanner{reg: NewRegistry()}
}

// Scan walks the tree depth-first and applies every rule, in registration
// order, to each node. Findings come back in traversal order, which keeps
// same-line results stable across runs.
func (s *Scanner) Scan(tree *syntax.Tree) []finding.Finding {
	var out []finding.Finding
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		for _, rule := range s.reg.rules {
			msg, ok := rule.Check(n)
			if !ok {
				continue
			}
			f := finding.Finding{
				RuleID:     rule.ID,
				Severity:   rule.Severity,
				Category:   finding.CategorySecurity,
				Path:       tree.Path,
				Lines:      finding.LineRange{Start: n.Span.StartLine, End: n.Span.EndLine},
				Message:    msg,
				Suggestion: rule.Suggestion,
				Confidence: rule.Confidence,
			}
			f.ID = finding.NewID(f.RuleID, f.Path, f.Lines.Start)
			out = append(out, f)
		}
		return true
	})
	return out
}

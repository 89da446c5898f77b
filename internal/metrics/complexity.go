package metrics

import (
	"fmt"
	"math"

	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/syntax"
)

// Halstead holds the operator/operand derived measures for one unit.
type Halstead struct {
	DistinctOperators int     `json:"distinctOperators"`
	DistinctOperands  int     `json:"distinctOperands"`
	TotalOperators    int     `json:"totalOperators"`
	TotalOperands     int     `json:"totalOperands"`
	Vocabulary        int     `json:"vocabulary"`
	Length            int     `json:"length"`
	Volume            float64 `json:"volume"`
	Difficulty        float64 `json:"difficulty"`
	Effort            float64 `json:"effort"`
}

// Record is the computed complexity profile of one function, method, or
// closure. Computed once per unit per run; never mutated afterward.
type Record struct {
	Name            string      `json:"name"`
	Span            syntax.Span `json:"span"`
	Lines           int         `json:"lines"`
	Cyclomatic      int         `json:"cyclomatic"`
	Cognitive       int         `json:"cognitive"`
	Halstead        Halstead    `json:"halstead"`
	Maintainability float64     `json:"maintainability"`
}

// Thresholds are the metric cutoffs beyond which findings are emitted.
type Thresholds struct {
	CyclomaticModerate int     `json:"cyclomaticModerate"`
	CyclomaticSevere   int     `json:"cyclomaticSevere"`
	Cognitive          int     `json:"cognitive"`
	Maintainability    float64 `json:"maintainability"`
}

// DefaultThresholds returns the standard cutoffs: cyclomatic >10 moderate
// and >20 severe, cognitive >15, maintainability <65 flagged.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CyclomaticModerate: 10,
		CyclomaticSevere:   20,
		Cognitive:          15,
		Maintainability:    65,
	}
}

// Calculator computes metrics and threshold findings for a tree.
type Calculator struct {
	thresholds Thresholds
}

// New returns a calculator using the given thresholds; zero values fall
// back to the defaults.
func New(t Thresholds) *Calculator {
	d := DefaultThresholds()
	if t.CyclomaticModerate <= 0 {
		t.CyclomaticModerate = d.CyclomaticModerate
	}
	if t.CyclomaticSevere <= 0 {
		t.CyclomaticSevere = d.CyclomaticSevere
	}
	if t.Cognitive <= 0 {
		t.Cognitive = d.Cognitive
	}
	if t.Maintainability <= 0 {
		t.Maintainability = d.Maintainability
	}
	return &Calculator{thresholds: t}
}

// Analyze computes a record per function in the tree, returning the
// records and any threshold findings.
func (c *Calculator) Analyze(tree *syntax.Tree) ([]Record, []finding.Finding) {
	if tree == nil || tree.Root == nil {
		return nil, nil
	}

	var records []Record
	var findings []finding.Finding
	for _, fn := range syntax.Functions(tree.Root) {
		rec := Compute(fn)
		records = append(records, rec)
		findings = append(findings, c.check(rec, tree.Path)...)
	}
	return records, findings
}

// Compute derives the full metric record for one function node. Nested
// functions are excluded; they get records of their own.
func Compute(fn *syntax.Node) Record {
	rec := Record{
		Name: fn.Name,
		Span: fn.Span,
	}
	if rec.Name == "" {
		rec.Name = "<anonymous>"
	}
	rec.Lines = fn.Span.EndLine - fn.Span.StartLine + 1

	rec.Cyclomatic = 1
	distinctOps := make(map[string]struct{})
	distinctOperands := make(map[string]struct{})

	var walk func(n *syntax.Node, depth int)
	walk = func(n *syntax.Node, depth int) {
		for _, child := range n.Children {
			if child.Kind == syntax.KindFunction {
				continue
			}

			childDepth := depth
			if decisionPoint(child) {
				rec.Cyclomatic++
				if child.Kind == syntax.KindBooleanOp {
					// Short-circuit operators add a path but no
					// nesting cost.
					rec.Cognitive++
				} else {
					rec.Cognitive += 1 + depth
					childDepth = depth + 1
				}
			} else if nests(child) {
				childDepth = depth + 1
			}

			if child.Kind.IsOperator() {
				rec.Halstead.TotalOperators++
				distinctOps[operatorKey(child)] = struct{}{}
			}
			if child.Kind.IsOperand() {
				rec.Halstead.TotalOperands++
				distinctOperands[child.Name] = struct{}{}
			}

			walk(child, childDepth)
		}
	}
	walk(fn, 0)

	rec.Halstead.DistinctOperators = len(distinctOps)
	rec.Halstead.DistinctOperands = len(distinctOperands)
	rec.Halstead.Vocabulary = rec.Halstead.DistinctOperators + rec.Halstead.DistinctOperands
	rec.Halstead.Length = rec.Halstead.TotalOperators + rec.Halstead.TotalOperands
	if rec.Halstead.Vocabulary > 0 {
		rec.Halstead.Volume = float64(rec.Halstead.Length) * math.Log2(float64(rec.Halstead.Vocabulary))
	}
	if rec.Halstead.DistinctOperands > 0 {
		rec.Halstead.Difficulty = float64(rec.Halstead.DistinctOperators) / 2 *
			float64(rec.Halstead.TotalOperands) / float64(rec.Halstead.DistinctOperands)
	}
	rec.Halstead.Effort = rec.Halstead.Difficulty * rec.Halstead.Volume

	rec.Maintainability = maintainabilityIndex(rec.Halstead.Volume, rec.Cyclomatic, rec.Lines)
	return rec
}

// decisionPoint reports whether a node adds an independent execution path:
// branches, loops, boolean short-circuit operators, exception handlers.
// Switch-style dispatch nodes themselves are not decision points; their
// cases are.
func decisionPoint(n *syntax.Node) bool {
	switch n.Kind {
	case syntax.KindConditional:
		switch n.Type {
		case "switch_statement", "expression_switch_statement",
			"type_switch_statement", "select_statement", "match_statement":
			return false
		}
		return true
	case syntax.KindLoop, syntax.KindBooleanOp, syntax.KindExceptClause:
		return true
	}
	return false
}

// nests reports whether a non-decision node still deepens nesting for the
// cognitive score.
func nests(n *syntax.Node) bool {
	if n.Kind == syntax.KindWith || n.Kind == syntax.KindTry {
		return true
	}
	switch n.Type {
	case "switch_statement", "expression_switch_statement",
		"type_switch_statement", "select_statement", "match_statement":
		return true
	}
	return false
}

func operatorKey(n *syntax.Node) string {
	if n.Name != "" {
		return n.Kind.String() + ":" + n.Name
	}
	return n.Kind.String()
}

// maintainabilityIndex is the standard composite of Halstead volume,
// cyclomatic complexity, and line count, rescaled to [0,100].
func maintainabilityIndex(volume float64, cyclomatic, lines int) float64 {
	v := math.Max(volume, 1)
	loc := math.Max(float64(lines), 1)
	mi := 171 - 5.2*math.Log(v) - 0.23*float64(cyclomatic) - 16.2*math.Log(loc)
	mi = mi * 100 / 171
	return math.Min(100, math.Max(0, mi))
}

func (c *Calculator) check(rec Record, path string) []finding.Finding {
	var out []finding.Finding

	emit := func(ruleID string, sev finding.Severity, msg, metric string, value float64) {
		out = append(out, finding.Finding{
			ID:         finding.NewID(ruleID, path, rec.Span.StartLine),
			RuleID:     ruleID,
			Severity:   sev,
			Category:   finding.CategoryComplexity,
			Path:       path,
			Lines:      finding.LineRange{Start: rec.Span.StartLine, End: rec.Span.EndLine},
			Message:    msg,
			Metric:     &finding.MetricValue{Name: metric, Value: value},
			Confidence: 1.0,
		})
	}

	switch {
	case rec.Cyclomatic > c.thresholds.CyclomaticSevere:
		emit("complexity/cyclomatic", finding.SeverityHigh,
			fmt.Sprintf("function %s has cyclomatic complexity %d (severe threshold %d)",
				rec.Name, rec.Cyclomatic, c.thresholds.CyclomaticSevere),
			"cyclomatic", float64(rec.Cyclomatic))
	case rec.Cyclomatic > c.thresholds.CyclomaticModerate:
		emit("complexity/cyclomatic", finding.SeverityMedium,
			fmt.Sprintf("function %s has cyclomatic complexity %d (threshold %d)",
				rec.Name, rec.Cyclomatic, c.thresholds.CyclomaticModerate),
			"cyclomatic", float64(rec.Cyclomatic))
	}

	if rec.Cognitive > c.thresholds.Cognitive {
		emit("complexity/cognitive", finding.SeverityMedium,
			fmt.Sprintf("function %s has cognitive complexity %d (threshold %d)",
				rec.Name, rec.Cognitive, c.thresholds.Cognitive),
			"cognitive", float64(rec.Cognitive))
	}

	if rec.Maintainability < c.thresholds.Maintainability {
		emit("complexity/maintainability", finding.SeverityMedium,
			fmt.Sprintf("function %s has maintainability index %.1f (threshold %.0f)",
				rec.Name, rec.Maintainability, c.thresholds.Maintainability),
			"maintainability", rec.Maintainability)
	}

	return out
}

package semantic

import (
	"context"
	"strings"
	"testing"

	"github.com/clay-good/reviewr/internal/syntax"
)

func parsePython(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := syntax.Parse(context.Background(), "test.py", []byte(src), syntax.LangPython)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return tree
}

func TestResourceLeakEarlyReturn(t *testing.T) {
	src := `def load(path, strict):
    f = open(path)
    if strict:
        return None
    data = f.read()
    f.close()
    return data
`
	fs := New().Analyze(parsePython(t, src))
	leaks := 0
	for _, f := range fs {
		if f.RuleID == "SEM001" {
			leaks++
			if f.Category != "semantic" {
				t.Errorf("category = %q, want semantic", f.Category)
			}
			if f.Lines.Start != 2 {
				t.Errorf("leak reported at line %d, want 2 (the acquisition)", f.Lines.Start)
			}
		}
	}
	if leaks != 1 {
		t.Fatalf("got %d leak findings, want 1: %v", leaks, fs)
	}
}

func TestResourceLeakNoRelease(t *testing.T) {
	src := `def load(path):
    f = open(path)
    return f.read()
`
	fs := New().Analyze(parsePython(t, src))
	leaks := 0
	for _, f := range fs {
		if f.RuleID == "SEM001" {
			leaks++
		}
	}
	if leaks != 1 {
		t.Fatalf("got %d leak findings, want 1", leaks)
	}
}

func TestResourceLeakScopedAcquisitionExempt(t *testing.T) {
	src := `def load(path, strict):
    with open(path) as f:
        if strict:
            return None
        return f.read()
`
	fs := New().Analyze(parsePython(t, src))
	for _, f := range fs {
		if f.RuleID == "SEM001" {
			t.Errorf("with-scoped acquisition flagged: %+v", f)
		}
	}
}

func TestResourceLeakReleasedBeforeReturn(t *testing.T) {
	src := `def load(path):
    f = open(path)
    data = f.read()
    f.close()
    return data
`
	fs := New().Analyze(parsePython(t, src))
	for _, f := range fs {
		if f.RuleID == "SEM001" {
			t.Errorf("released resource flagged: %+v", f)
		}
	}
}

func TestUnreachableAfterTerminal(t *testing.T) {
	src := `def f(x):
    return x * 2
    print("never")
`
	fs := New().Analyze(parsePython(t, src))
	found := false
	for _, f := range fs {
		if f.RuleID == "SEM002" {
			found = true
			if f.Lines.Start != 3 {
				t.Errorf("unreachable reported at line %d, want 3", f.Lines.Start)
			}
		}
	}
	if !found {
		t.Fatalf("expected SEM002 finding, got %v", fs)
	}
}

func TestUnreachableNotFlaggedAcrossBranches(t *testing.T) {
	src := `def f(x):
    if x:
        return 1
    return 2
`
	fs := New().Analyze(parsePython(t, src))
	for _, f := range fs {
		if f.RuleID == "SEM002" {
			t.Errorf("reachable statement flagged: %+v", f)
		}
	}
}

func TestInconsistentReturnShapes(t *testing.T) {
	src := `def lookup(d, k):
    if k in d:
        return d[k], True
    if k == "":
        return
    return None
`
	fs := New().Analyze(parsePython(t, src))
	found := false
	for _, f := range fs {
		if f.RuleID == "SEM003" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected SEM003 finding, got %v", fs)
	}
}

func TestConsistentReturnsNotFlagged(t *testing.T) {
	src := `def double(x):
    if x < 0:
        return -x * 2
    return x * 2
`
	fs := New().Analyze(parsePython(t, src))
	for _, f := range fs {
		if f.RuleID == "SEM003" {
			t.Errorf("consistent returns flagged: %+v", f)
		}
	}
}

func TestGoSingleReturnNotATuple(t *testing.T) {
	// The Go grammar wraps every return value list, so a lone value must
	// be unwrapped before classification.
	src := `package p

func pick(n int) (r int) {
	if n > 0 {
		return n
	}
	return
}
`
	tree, err := syntax.Parse(context.Background(), "test.go", []byte(src), syntax.LangGo)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	fs := New().Analyze(tree)
	found := false
	for _, f := range fs {
		if f.RuleID != "SEM003" {
			continue
		}
		found = true
		if strings.Contains(f.Message, "a tuple") {
			t.Errorf("single-value return described as a tuple: %q", f.Message)
		}
		if !strings.Contains(f.Message, "a single value") {
			t.Errorf("message = %q, want it to mention a single value", f.Message)
		}
	}
	if !found {
		t.Fatalf("expected SEM003 finding, got %v", fs)
	}
}

func TestGoPairReturnStaysATuple(t *testing.T) {
	src := `package p

func split(s string) (string, error) {
	if s == "" {
		return "", errEmpty
	}
	return s, nil
}
`
	tree, err := syntax.Parse(context.Background(), "test.go", []byte(src), syntax.LangGo)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, f := range New().Analyze(tree) {
		if f.RuleID == "SEM003" {
			t.Errorf("consistent pair returns flagged: %+v", f)
		}
	}
}

package taint

import (
	"context"
	"strings"
	"testing"

	"github.com/clay-good/reviewr/internal/catalog"
	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/syntax"
)

func analyzePython(t *testing.T, src string) []finding.Finding {
	t.Helper()
	tree, err := syntax.Parse(context.Background(), "app.py", []byte(src), syntax.LangPython)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return New(catalog.Default()).Analyze(tree)
}

func dataflowRules(fs []finding.Finding) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.RuleID)
	}
	return out
}

func TestSourceReachesShellSink(t *testing.T) {
	src := `import os

def handler():
    target = request.args.get("host")
    cmd = "ping " + target
    os.system(cmd)
`
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want exactly one", dataflowRules(fs))
	}
	f := fs[0]
	if f.RuleID != "taint/sink.shell-exec" {
		t.Errorf("rule = %s, want taint/sink.shell-exec", f.RuleID)
	}
	if f.Severity != finding.SeverityCritical {
		t.Errorf("severity = %s, want critical", f.Severity)
	}
	if f.Lines.Start != 6 {
		t.Errorf("reported line = %d, want the sink call at 6", f.Lines.Start)
	}
	if !strings.Contains(f.Message, "request.args.get") || !strings.Contains(f.Message, "os.system") {
		t.Errorf("message should name source and sink: %q", f.Message)
	}
	if !strings.Contains(f.Message, "via") {
		t.Errorf("message should carry the propagation chain: %q", f.Message)
	}
}

func TestSanitizerClearsTaint(t *testing.T) {
	src := `import os, shlex

def handler():
    target = request.args.get("host")
    safe = shlex.quote(target)
    os.system("ping " + safe)
`
	fs := analyzePython(t, src)
	if len(fs) != 0 {
		t.Errorf("sanitized flow still flagged: %v", dataflowRules(fs))
	}
}

func TestSinkDirectArgument(t *testing.T) {
	src := "def f():\n    os.system(request.args.get(\"cmd\"))\n"
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one", dataflowRules(fs))
	}
}

func TestReassignmentClearsBinding(t *testing.T) {
	src := `def f():
    x = request.args.get("q")
    x = "constant"
    cursor.execute(x)
`
	fs := analyzePython(t, src)
	if len(fs) != 0 {
		t.Errorf("clean reassignment still flagged: %v", dataflowRules(fs))
	}
}

func TestAugmentedAssignmentKeepsTaint(t *testing.T) {
	// Appending a clean suffix extends the value; it must not clear the tag.
	src := `def f():
    cmd = request.args.get("host")
    cmd += " -v"
    os.system(cmd)
`
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one (+= must union, not overwrite)", dataflowRules(fs))
	}
	if fs[0].RuleID != "taint/sink.shell-exec" {
		t.Errorf("rule = %s, want taint/sink.shell-exec", fs[0].RuleID)
	}
}

func TestAugmentedAssignmentAddsTaint(t *testing.T) {
	src := `def f():
    cmd = "ping "
    cmd += request.args.get("host")
    os.system(cmd)
`
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one", dataflowRules(fs))
	}
}

func TestChainedSinkReceiver(t *testing.T) {
	// The sink call is the receiver of a further chained call; it must
	// still be checked.
	src := `def f(cursor):
    q = "SELECT * FROM t WHERE id = " + request.args.get("id")
    return cursor.execute(q).fetchone()
`
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one", dataflowRules(fs))
	}
	if fs[0].RuleID != "taint/sink.sql-execute" {
		t.Errorf("rule = %s, want taint/sink.sql-execute", fs[0].RuleID)
	}
}

func TestConservativeBranchJoin(t *testing.T) {
	// Clearing inside only one branch must not clear the joined state.
	src := `def f(flag):
    x = request.args.get("q")
    if flag:
        x = "constant"
    cursor.execute(x)
`
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one (branch may leave x tainted)", dataflowRules(fs))
	}
	if fs[0].RuleID != "taint/sink.sql-execute" {
		t.Errorf("rule = %s, want taint/sink.sql-execute", fs[0].RuleID)
	}
}

func TestTaintIntroducedInBranchFlowsOut(t *testing.T) {
	src := `def f(flag):
    x = "constant"
    if flag:
        x = request.args.get("q")
    os.system(x)
`
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one", dataflowRules(fs))
	}
}

func TestFormatStringPropagatesTaint(t *testing.T) {
	src := `def f():
    user = request.args.get("id")
    q = f"select * from t where id = {user}"
    cursor.execute(q)
`
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one", dataflowRules(fs))
	}
}

func TestScopesAreIndependent(t *testing.T) {
	// Taint in one function must not leak into another.
	src := `def a():
    x = request.args.get("q")

def b():
    x = "clean"
    os.system(x)
`
	fs := analyzePython(t, src)
	if len(fs) != 0 {
		t.Errorf("cross-function leak: %v", dataflowRules(fs))
	}
}

func TestModuleTopLevelScope(t *testing.T) {
	src := "x = os.environ.get(\"CMD\")\nos.system(x)\n"
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one", dataflowRules(fs))
	}
	if !strings.Contains(fs[0].Message, "os.environ.get") {
		t.Errorf("origin should be the environment read: %q", fs[0].Message)
	}
}

func TestUnknownCallPreservesTaint(t *testing.T) {
	src := `def f():
    x = request.args.get("q")
    y = decorate(x)
    os.system(y)
`
	fs := analyzePython(t, src)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one (unknown calls pass taint through)", dataflowRules(fs))
	}
}

func TestJavaScriptFlow(t *testing.T) {
	src := `function handler(req) {
  const target = req.query;
  child_process.exec("ping " + target);
}
`
	tree, err := syntax.Parse(context.Background(), "app.js", []byte(src), syntax.LangJavaScript)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fs := New(catalog.Default()).Analyze(tree)
	if len(fs) != 1 {
		t.Fatalf("findings = %v, want one", dataflowRules(fs))
	}
	if fs[0].RuleID != "taint/sink.shell-exec" {
		t.Errorf("rule = %s, want taint/sink.shell-exec", fs[0].RuleID)
	}
}

func TestStateUnion(t *testing.T) {
	a := (*State)(nil).add(Origin{Category: catalog.CategoryUserInput, SourceID: "s1"})
	b := (*State)(nil).add(Origin{Category: catalog.CategoryNetwork, SourceID: "s2"})

	u := union(a, b)
	if !u.Tainted() || len(u.Origins()) != 2 {
		t.Fatalf("union carries %d origins, want 2", len(u.Origins()))
	}
	if union(nil, nil) != nil {
		t.Error("union of untainted states should be nil")
	}
}

func TestStateClearCategories(t *testing.T) {
	st := (*State)(nil).
		add(Origin{Category: catalog.CategoryUserInput}).
		add(Origin{Category: catalog.CategoryNetwork})

	cleared := st.clearCategories([]catalog.Category{catalog.CategoryUserInput})
	if len(cleared.ByCategory(catalog.CategoryUserInput)) != 0 {
		t.Error("user_input tag survived clearing")
	}
	if len(cleared.ByCategory(catalog.CategoryNetwork)) != 1 {
		t.Error("network tag should survive")
	}

	if st.clearCategories([]catalog.Category{
		catalog.CategoryUserInput, catalog.CategoryNetwork,
	}) != nil {
		t.Error("clearing every tag should return nil")
	}
}

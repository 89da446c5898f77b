package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clay-good/reviewr/internal/config"
	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/syntax"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(config.Default(), Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

const taintedShellSrc = `import os

def handler(request):
    target = request.args.get("host")
    os.system("ping " + target)
`

func TestAnalyzeFileTaintedShell(t *testing.T) {
	e := newTestEngine(t)
	res := e.AnalyzeFile(context.Background(), "handler.py", []byte(taintedShellSrc), syntax.LangPython)

	if res.Status != StatusOK {
		t.Fatalf("status = %q, want ok (parse error: %s)", res.Status, res.ParseError)
	}
	var critical []finding.Finding
	for _, f := range res.Findings {
		if f.Severity == finding.SeverityCritical && f.Lines.Start == 5 {
			critical = append(critical, f)
		}
	}
	if len(critical) == 0 {
		t.Fatalf("no critical finding on the execution line; got %+v", res.Findings)
	}
	for _, f := range critical {
		if f.Category != finding.CategorySecurity && f.Category != finding.CategoryDataflow {
			t.Errorf("critical finding category = %q, want security or dataflow", f.Category)
		}
	}
}

func TestAnalyzeFileSanitizedShell(t *testing.T) {
	src := `import os, shlex

def handler(request):
    target = request.args.get("host")
    safe = shlex.quote(target)
    os.system("ping " + safe)
`
	e := newTestEngine(t)
	res := e.AnalyzeFile(context.Background(), "handler.py", []byte(src), syntax.LangPython)

	for _, f := range res.Findings {
		if f.Category == finding.CategoryDataflow {
			t.Errorf("sanitized flow still reported: %+v", f)
		}
	}
}

func TestAnalyzeFileParseFailure(t *testing.T) {
	e := newTestEngine(t)
	res := e.AnalyzeFile(context.Background(), "broken.py", []byte("def (((("), syntax.LangPython)

	if res.Status != StatusSkipped {
		t.Fatalf("status = %q, want skipped", res.Status)
	}
	if res.ParseError == "" {
		t.Error("ParseError is empty for a skipped file")
	}
	if len(res.Findings) != 0 {
		t.Errorf("skipped file produced findings: %v", res.Findings)
	}
}

func TestAnalyzeFileDeterministic(t *testing.T) {
	e := newTestEngine(t)

	first := e.AnalyzeFile(context.Background(), "handler.py", []byte(taintedShellSrc), syntax.LangPython)
	firstJSON, err := json.Marshal(first.Findings)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again := e.AnalyzeFile(context.Background(), "handler.py", []byte(taintedShellSrc), syntax.LangPython)
		againJSON, err := json.Marshal(again.Findings)
		if err != nil {
			t.Fatal(err)
		}
		if string(firstJSON) != string(againJSON) {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, firstJSON, againJSON)
		}
	}
}

func TestAnalyzeFileDisabledStages(t *testing.T) {
	cfg := config.Default()
	cfg.Disable = []string{"security", "taint", "semantic"}
	e, err := New(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}

	res := e.AnalyzeFile(context.Background(), "handler.py", []byte(taintedShellSrc), syntax.LangPython)
	if len(res.Stages) != 1 || res.Stages[0].Name != StageMetrics {
		t.Fatalf("stages = %+v, want only metrics", res.Stages)
	}
	for _, f := range res.Findings {
		if f.Category != finding.CategoryComplexity {
			t.Errorf("disabled analyzer produced finding: %+v", f)
		}
	}
}

func TestAnalyzePaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "handler.py"), []byte(taintedShellSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clean.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t)
	report, err := e.AnalyzePaths(context.Background(), []string{dir}, 2)
	if err != nil {
		t.Fatalf("AnalyzePaths() error = %v", err)
	}

	if report.Tool != ToolName {
		t.Errorf("Tool = %q, want %q", report.Tool, ToolName)
	}
	if len(report.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(report.Files))
	}
	// Files are analyzed concurrently but reported in path order.
	if report.Files[0].Path > report.Files[1].Path {
		t.Errorf("files out of order: %s, %s", report.Files[0].Path, report.Files[1].Path)
	}
	if report.Summary.Counts.Critical == 0 {
		t.Error("expected at least one critical finding in summary")
	}
	if report.Summary.Counts.Total() != len(report.Findings) {
		t.Errorf("summary total = %d, findings = %d", report.Summary.Counts.Total(), len(report.Findings))
	}
}

func TestAnalyzePathsResultCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handler.py")
	if err := os.WriteFile(path, []byte(taintedShellSrc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Cache = config.Cache{Enabled: true, Dir: t.TempDir()}
	e, err := New(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}

	first, err := e.AnalyzePaths(context.Background(), []string{dir}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if first.Files[0].Cached {
		t.Error("first run should not be served from cache")
	}

	second, err := e.AnalyzePaths(context.Background(), []string{dir}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Files[0].Cached {
		t.Fatal("second run should hit the cache")
	}

	a, _ := json.Marshal(first.Files[0].Findings)
	b, _ := json.Marshal(second.Files[0].Findings)
	if string(a) != string(b) {
		t.Errorf("cached findings differ:\n%s\nvs\n%s", a, b)
	}
}

func TestAnalyzePathsCancelled(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.py", "b.py", "c.py"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x = 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t)
	report, err := e.AnalyzePaths(ctx, []string{dir}, 1)
	if err != nil {
		t.Fatalf("AnalyzePaths() error = %v", err)
	}
	for _, f := range report.Files {
		if f.Status != StatusSkipped {
			t.Errorf("%s status = %q, want skipped after cancellation", f.Path, f.Status)
		}
	}
}

func TestRunStageRecoversPanic(t *testing.T) {
	e := newTestEngine(t)
	tree := &syntax.Tree{Path: "x.py", Language: syntax.LangPython, Root: &syntax.Node{Kind: syntax.KindModule}}

	fs, err := e.runStage("boom", "x.py", tree, func(*syntax.Tree) []finding.Finding {
		panic("rule misfired")
	})
	if fs != nil {
		t.Errorf("findings = %v, want nil after panic", fs)
	}
	var ierr *InternalError
	if !errors.As(err, &ierr) {
		t.Fatalf("error = %v, want *InternalError", err)
	}
	if ierr.Stage != "boom" || ierr.Path != "x.py" {
		t.Errorf("InternalError = %+v", ierr)
	}
}

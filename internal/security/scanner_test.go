package security

import (
	"context"
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

func TestScanShellConcat(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{
			name: "concat with identifier",
			src: `import os
def run(name):
    os.system("ping " + name)
`,
			want: true,
		},
		{
			name: "f-string argument",
			src: `import os
def run(name):
    os.system(f"ping {name}")
`,
			want: true,
		},
		{
			name: "literal command",
			src: `import os
def run():
    os.system("ls -la")
`,
			want: false,
		},
		{
			name: "quoted argument is not concat-shaped",
			src: `import os, shlex
def run(name):
    os.system(shlex.quote(name))
`,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := New().Scan(parsePython(t, tt.src))
			got := false
			for _, f := range fs {
				if f.RuleID == "SEC001" {
					got = true
				}
			}
			if got != tt.want {
				t.Errorf("SEC001 matched = %v, want %v (findings: %v)", got, tt.want, fs)
			}
		})
	}
}

func TestScanSQLConcat(t *testing.T) {
	src := `def q(cur, uid):
    cur.execute("SELECT * FROM users WHERE id = " + uid)
`
	fs := New().Scan(parsePython(t, src))
	found := false
	for _, f := range fs {
		if f.RuleID == "SEC002" {
			found = true
			if f.Severity != "critical" {
				t.Errorf("SEC002 severity = %q, want critical", f.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected SEC002 finding, got %v", fs)
	}
}

func TestScanDynamicEval(t *testing.T) {
	src := `def calc(expr):
    return eval(expr)
`
	fs := New().Scan(parsePython(t, src))
	found := false
	for _, f := range fs {
		if f.RuleID == "SEC003" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected SEC003 finding, got %v", fs)
	}

	// A literal argument is fine.
	fs = New().Scan(parsePython(t, `x = eval("1 + 1")`))
	for _, f := range fs {
		if f.RuleID == "SEC003" {
			t.Errorf("eval of literal flagged: %+v", f)
		}
	}
}

func TestScanHardcodedCredential(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "password literal", src: `password = "hunter2secret"`, want: true},
		{name: "api key literal", src: `api_key = "sk-abc123def456"`, want: true},
		{name: "placeholder ignored", src: `password = "changeme"`, want: false},
		{name: "short value ignored", src: `token = "abc"`, want: false},
		{name: "env lookup ignored", src: `password = os.environ["DB_PASS"]`, want: false},
		{name: "unrelated name ignored", src: `greeting = "hello world"`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := New().Scan(parsePython(t, tt.src))
			got := false
			for _, f := range fs {
				if f.RuleID == "SEC005" {
					got = true
				}
			}
			if got != tt.want {
				t.Errorf("SEC005 matched = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanWeakDigest(t *testing.T) {
	src := `import hashlib
def fingerprint(data):
    return hashlib.md5(data).hexdigest()
`
	fs := New().Scan(parsePython(t, src))
	found := false
	for _, f := range fs {
		if f.RuleID == "SEC006" {
			found = true
			if f.Severity != "medium" {
				t.Errorf("SEC006 severity = %q, want medium", f.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected SEC006 finding, got %v", fs)
	}
}

func TestScanExceptionSwallow(t *testing.T) {
	swallow := `def load(path):
    try:
        return open(path).read()
    except Exception:
        pass
`
	fs := New().Scan(parsePython(t, swallow))
	found := false
	for _, f := range fs {
		if f.RuleID == "SEC007" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected SEC007 finding, got %v", fs)
	}

	handled := `def load(path):
    try:
        return open(path).read()
    except Exception as e:
        log.warning(e)
        raise
`
	fs = New().Scan(parsePython(t, handled))
	for _, f := range fs {
		if f.RuleID == "SEC007" {
			t.Errorf("handled exception flagged: %+v", f)
		}
	}
}

func TestScanDeterministic(t *testing.T) {
	src := `import os, hashlib
password = "supersecretvalue"
def run(cmd):
    os.system("sh -c " + cmd)
    hashlib.sha1(cmd.encode())
`
	first := New().Scan(parsePython(t, src))
	for i := 0; i < 5; i++ {
		again := New().Scan(parsePython(t, src))
		if len(again) != len(first) {
			t.Fatalf("run %d: %d findings, want %d", i, len(again), len(first))
		}
		for j := range first {
			if first[j].ID != again[j].ID {
				t.Fatalf("run %d: finding %d id %q, want %q", i, j, again[j].ID, first[j].ID)
			}
		}
	}
}

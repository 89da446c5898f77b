package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clay-good/reviewr/internal/syntax"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultCatalogValid(t *testing.T) {
	c := Default()
	sources, sinks, sanitizers := c.Len()
	if sources == 0 || sinks == 0 || sanitizers == 0 {
		t.Fatalf("default catalog is missing a role: %d/%d/%d", sources, sinks, sanitizers)
	}
}

func TestDefaultCatalogMatches(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		lang syntax.Language
		role Role
		want bool
	}{
		{"request.args.get", syntax.LangPython, RoleSource, true},
		{"os.system", syntax.LangPython, RoleSink, true},
		{"cursor.execute", syntax.LangPython, RoleSink, true},
		{"shlex.quote", syntax.LangPython, RoleSanitizer, true},
		{"print", syntax.LangPython, RoleSink, false},
		{"", syntax.LangPython, RoleSource, false},
	}
	for _, tt := range tests {
		var ok bool
		switch tt.role {
		case RoleSource:
			_, ok = c.MatchSource(tt.name, tt.lang)
		case RoleSink:
			_, ok = c.MatchSink(tt.name, tt.lang)
		case RoleSanitizer:
			_, ok = c.MatchSanitizer(tt.name, tt.lang)
		}
		if ok != tt.want {
			t.Errorf("match %s %q = %v, want %v", tt.role, tt.name, ok, tt.want)
		}
	}
}

func TestMatchDotted(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"execute", "execute", true},
		{"cursor.execute", "execute", true},
		{"db.cursor.execute", "execute", true},
		{"os.system", "os.system", true},
		{"myos.system", "os.system", false},
		{"executemany", "execute", false},
		{"system", "os.system", false},
	}
	for _, tt := range tests {
		if got := matchDotted(tt.name, tt.pattern); got != tt.want {
			t.Errorf("matchDotted(%q, %q) = %v, want %v", tt.name, tt.pattern, got, tt.want)
		}
	}
}

func TestEntryLanguageScoping(t *testing.T) {
	e := Entry{
		ID:       "x",
		Role:     RoleSink,
		Language: syntax.LangPython,
		Patterns: []string{"os.system"},
	}
	if !e.Matches("os.system", syntax.LangPython) {
		t.Error("entry should match its own language")
	}
	if e.Matches("os.system", syntax.LangJavaScript) {
		t.Error("language-scoped entry matched another language")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	ds, _, _ := Default().Len()
	cs, _, _ := c.Len()
	if cs != ds {
		t.Errorf("Load(\"\") sources = %d, want default %d", cs, ds)
	}
}

func TestLoadUserFileMergesWithDefaults(t *testing.T) {
	path := writeCatalog(t, `entries:
  - id: custom-source
    role: source
    category: user_input
    patterns: ["myapp.request.param"]
  - id: custom-sink
    role: sink
    categories: [sql]
    severity: high
    patterns: ["myapp.db.raw"]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := c.MatchSource("myapp.request.param", syntax.LangPython); !ok {
		t.Error("user source not loaded")
	}
	if e, ok := c.MatchSink("thing.myapp.db.raw", syntax.LangPython); !ok || e.ID != "custom-sink" {
		t.Errorf("user sink match = %+v, %v", e, ok)
	}
	// Defaults survive the merge.
	if _, ok := c.MatchSink("os.system", syntax.LangPython); !ok {
		t.Error("default sink lost after merging a user file")
	}
}

func TestLoadRejectsMalformedCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "entries: [}"},
		{"no entries", "entries: []"},
		{"missing id", "entries:\n  - role: source\n    category: user_input\n    patterns: [x]\n"},
		{"unknown role", "entries:\n  - id: a\n    role: filter\n    category: sql\n    patterns: [x]\n"},
		{"no patterns", "entries:\n  - id: a\n    role: source\n    category: sql\n    patterns: []\n"},
		{"blank pattern", "entries:\n  - id: a\n    role: source\n    category: sql\n    patterns: [\"  \"]\n"},
		{"no category", "entries:\n  - id: a\n    role: source\n    patterns: [x]\n"},
		{"unknown category", "entries:\n  - id: a\n    role: source\n    category: telepathy\n    patterns: [x]\n"},
		{"sink without severity", "entries:\n  - id: a\n    role: sink\n    category: sql\n    patterns: [x]\n"},
		{"bad severity", "entries:\n  - id: a\n    role: sink\n    category: sql\n    severity: extreme\n    patterns: [x]\n"},
		{"bad language", "entries:\n  - id: a\n    role: source\n    category: sql\n    language: cobol\n    patterns: [x]\n"},
		{"duplicate of default", "entries:\n  - id: a\n    role: source\n    category: sql\n    patterns: [x]\n  - id: a\n    role: source\n    category: sql\n    patterns: [y]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t, tt.content)
			_, err := Load(path)
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("Load() error = %v, want *catalog.Error", err)
			}
			if cerr.Path != path {
				t.Errorf("error path = %q, want %q", cerr.Path, path)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("Load() error = %v, want *catalog.Error", err)
	}
}

func TestSinkCategories(t *testing.T) {
	e := Entry{Categories: []Category{CategorySQL}, Category: CategoryShell}
	cats := e.SinkCategories()
	if len(cats) != 2 {
		t.Fatalf("SinkCategories = %v, want both sql and shell", cats)
	}
}

func TestEntriesRoleOrder(t *testing.T) {
	c := Default()
	entries := c.Entries()
	sources, sinks, _ := c.Len()
	for i, e := range entries {
		switch {
		case i < sources && e.Role != RoleSource:
			t.Fatalf("entry %d role = %s, want source block first", i, e.Role)
		case i >= sources && i < sources+sinks && e.Role != RoleSink:
			t.Fatalf("entry %d role = %s, want sink block second", i, e.Role)
		}
	}
}

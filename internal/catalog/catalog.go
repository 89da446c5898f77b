package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/syntax"
)

// Role classifies a catalog entry.
type Role string

const (
	RoleSource    Role = "source"
	RoleSink      Role = "sink"
	RoleSanitizer Role = "sanitizer"
)

// Category is the operation family a source feeds or a sink endangers.
type Category string

const (
	CategorySQL             Category = "sql"
	CategoryShell           Category = "shell"
	CategoryFilesystem      Category = "filesystem"
	CategoryDeserialization Category = "deserialization"
	CategoryCodeInjection   Category = "code_injection"
	CategoryUserInput       Category = "user_input"
	CategoryEnvironment     Category = "environment"
	CategoryNetwork         Category = "network"
)

var knownCategories = map[Category]bool{
	CategorySQL:             true,
	CategoryShell:           true,
	CategoryFilesystem:      true,
	CategoryDeserialization: true,
	CategoryCodeInjection:   true,
	CategoryUserInput:       true,
	CategoryEnvironment:     true,
	CategoryNetwork:         true,
}

// Entry maps a syntactic pattern to a taint role. Patterns are dotted
// callee or attribute paths matched by trailing segments, so "execute"
// matches "cursor.execute" and "db.cursor.execute".
//
// For sources and sanitizers, Category names the origin tag the entry
// introduces or clears. For sinks, Categories lists every origin tag the
// sink is dangerous for, and Severity is the sink's declared danger level.
type Entry struct {
	ID          string             `yaml:"id"`
	Role        Role               `yaml:"role"`
	Language    syntax.Language    `yaml:"language,omitempty"` // empty = any language
	Category    Category           `yaml:"category,omitempty"`
	Categories  []Category         `yaml:"categories,omitempty"`
	Patterns    []string           `yaml:"patterns"`
	Severity    finding.Severity   `yaml:"severity,omitempty"`
	Description string             `yaml:"description,omitempty"`
}

// Error reports a malformed catalog. It is fatal at engine start.
type Error struct {
	Path string
	Msg  string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("taint catalog: %s", e.Msg)
	}
	return fmt.Sprintf("taint catalog %s: %s", e.Path, e.Msg)
}

// Catalog is the validated, read-only entry set shared by all workers.
type Catalog struct {
	sources    []Entry
	sinks      []Entry
	sanitizers []Entry
}

// file is the YAML document shape for user-supplied catalogs.
type file struct {
	Entries []Entry `yaml:"entries"`
}

// Load returns the default catalog merged with the optional user file.
// An empty path loads only the defaults.
func Load(path string) (*Catalog, error) {
	entries := defaultEntries()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{Path: path, Msg: err.Error()}
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, &Error{Path: path, Msg: fmt.Sprintf("invalid YAML: %v", err)}
		}
		if len(f.Entries) == 0 {
			return nil, &Error{Path: path, Msg: "no entries defined"}
		}
		entries = append(entries, f.Entries...)
	}

	return build(entries, path)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := build(defaultEntries(), "")
	if err != nil {
		// The built-in entries are validated by tests; a failure here is
		// a programming error.
		panic(err)
	}
	return c
}

func build(entries []Entry, path string) (*Catalog, error) {
	c := &Catalog{}
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if err := validate(e, i); err != nil {
			return nil, &Error{Path: path, Msg: err.Error()}
		}
		if seen[e.ID] {
			return nil, &Error{Path: path, Msg: fmt.Sprintf("duplicate entry id %q", e.ID)}
		}
		seen[e.ID] = true
		switch e.Role {
		case RoleSource:
			c.sources = append(c.sources, e)
		case RoleSink:
			c.sinks = append(c.sinks, e)
		case RoleSanitizer:
			c.sanitizers = append(c.sanitizers, e)
		}
	}
	return c, nil
}

func validate(e Entry, idx int) error {
	if e.ID == "" {
		return fmt.Errorf("entry %d: missing id", idx)
	}
	switch e.Role {
	case RoleSource, RoleSink, RoleSanitizer:
	default:
		return fmt.Errorf("entry %q: unknown role %q", e.ID, e.Role)
	}
	if len(e.Patterns) == 0 {
		return fmt.Errorf("entry %q: no patterns", e.ID)
	}
	for _, p := range e.Patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("entry %q: empty pattern", e.ID)
		}
	}
	cats := e.Categories
	if e.Category != "" {
		cats = append(cats, e.Category)
	}
	if len(cats) == 0 {
		return fmt.Errorf("entry %q: no category", e.ID)
	}
	for _, cat := range cats {
		if !knownCategories[cat] {
			return fmt.Errorf("entry %q: unknown category %q", e.ID, cat)
		}
	}
	if e.Role == RoleSink {
		switch e.Severity {
		case finding.SeverityCritical, finding.SeverityHigh, finding.SeverityMedium, finding.SeverityLow:
		case "":
			return fmt.Errorf("entry %q: sink requires a severity", e.ID)
		default:
			return fmt.Errorf("entry %q: unknown severity %q", e.ID, e.Severity)
		}
	}
	if e.Language != "" && !syntax.Supported(e.Language) {
		return fmt.Errorf("entry %q: unsupported language %q", e.ID, e.Language)
	}
	return nil
}

// SinkCategories returns the origin categories a sink entry endangers.
func (e Entry) SinkCategories() []Category {
	cats := e.Categories
	if e.Category != "" {
		cats = append(cats, e.Category)
	}
	return cats
}

// Matches reports whether name (a dotted callee or attribute path) matches
// any of the entry's patterns for the given language.
func (e Entry) Matches(name string, lang syntax.Language) bool {
	if name == "" {
		return false
	}
	if e.Language != "" && e.Language != lang {
		return false
	}
	for _, p := range e.Patterns {
		if matchDotted(name, p) {
			return true
		}
	}
	return false
}

// matchDotted matches a pattern against the trailing segments of a dotted
// name: "execute" matches "db.cursor.execute"; "os.system" matches
// "os.system" but not "myos.system".
func matchDotted(name, pattern string) bool {
	if name == pattern {
		return true
	}
	return strings.HasSuffix(name, "."+pattern)
}

// MatchSource returns the first source entry matching name, if any.
func (c *Catalog) MatchSource(name string, lang syntax.Language) (Entry, bool) {
	return match(c.sources, name, lang)
}

// MatchSink returns the first sink entry matching name, if any.
func (c *Catalog) MatchSink(name string, lang syntax.Language) (Entry, bool) {
	return match(c.sinks, name, lang)
}

// MatchSanitizer returns the first sanitizer entry matching name, if any.
func (c *Catalog) MatchSanitizer(name string, lang syntax.Language) (Entry, bool) {
	return match(c.sanitizers, name, lang)
}

func match(entries []Entry, name string, lang syntax.Language) (Entry, bool) {
	for _, e := range entries {
		if e.Matches(name, lang) {
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries by role, for diagnostics.
func (c *Catalog) Len() (sources, sinks, sanitizers int) {
	return len(c.sources), len(c.sinks), len(c.sanitizers)
}

// Entries returns a copy of all entries in role order, for display.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.sources)+len(c.sinks)+len(c.sanitizers))
	out = append(out, c.sources...)
	out = append(out, c.sinks...)
	out = append(out, c.sanitizers...)
	return out
}

package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/syntax"
)

// Rule is one signature predicate. Check returns a message when the node
// matches; severity and confidence are fixed per rule, never computed.
type Rule struct {
	ID         string
	Severity   finding.Severity
	Confidence float64
	Suggestion string
	Check      func(n *syntax.Node) (string, bool)
}

// Registry is the ordered rule set used by the scanner. Built once before
// any worker starts; read-only afterward.
type Registry struct {
	rules []Rule
}

// NewRegistry returns the default rule set in registration order.
func NewRegistry() *Registry {
	return &Registry{rules: defaultRules()}
}

// Rules returns the registered rules in order.
func (r *Registry) Rules() []Rule {
	return r.rules
}

var execLikeCallees = []string{
	"os.system", "os.popen", "subprocess.call", "subprocess.run",
	"subprocess.Popen", "subprocess.check_output", "subprocess.check_call",
	"child_process.exec", "child_process.execSync", "child_process.spawn",
	"exec.Command", "exec.CommandContext",
}

var sqlExecuteCallees = []string{
	"execute", "executemany", "executescript",
	"db.query", "db.Query", "db.Exec", "db.QueryRow",
}

var evalCallees = []string{"eval", "exec", "vm.runInNewContext", "Function"}

// credentialName matches assignment targets whose name suggests the value
// is a secret.
var credentialName = regexp.MustCompile(`(?i)(password|passwd|secret|token|credential|api[_-]?key|apikey|access[_-]?key|private[_-]?key)$`)

func defaultRules() []Rule {
	return []Rule{
		{
			ID:         "SEC001",
			Severity:   finding.SeverityCritical,
			Confidence: 0.9,
			Suggestion: "pass arguments as a list or use a quoting helper instead of building the command string",
			Check:      checkShellConcat,
		},
		{
			ID:         "SEC002",
			Severity:   finding.SeverityCritical,
			Confidence: 0.9,
			Suggestion: "use parameterized queries instead of string building",
			Check:      checkSQLConcat,
		},
		{
			ID:         "SEC003",
			Severity:   finding.SeverityHigh,
			Confidence: 0.8,
			Suggestion: "avoid dynamic code evaluation; use a safe dispatch table",
			Check:      checkDynamicEval,
		},
		{
			ID:         "SEC004",
			Severity:   finding.SeverityHigh,
			Confidence: 0.8,
			Suggestion: "deserialize untrusted data with a safe loader or a schema-validated format",
			Check:      checkInsecureDeserialization,
		},
		{
			ID:         "SEC005",
			Severity:   finding.SeverityHigh,
			Confidence: 0.7,
			Suggestion: "load credentials from the environment or a secret store",
			Check:      checkHardcodedCredential,
		},
		{
			ID:         "SEC006",
			Severity:   finding.SeverityMedium,
			Confidence: 0.8,
			Suggestion: "use SHA-256 or stronger for security-sensitive digests",
			Check:      checkWeakDigest,
		},
		{
			ID:         "SEC007",
			Severity:   finding.SeverityLow,
			Confidence: 0.7,
			Suggestion: "handle or re-raise the exception; at minimum log it",
			Check:      checkExceptionSwallow,
		},
	}
}

func calleeMatches(name string, patterns []string) bool {
	for _, p := range patterns {
		if name == p || strings.HasSuffix(name, "."+p) {
			return true
		}
	}
	return false
}

// builtFromParts reports whether an expression assembles a string at
// runtime: concatenation, %-formatting, f-strings/templates, or .format
// calls that involve at least one non-literal part.
func builtFromParts(n *syntax.Node) bool {
	switch n.Kind {
	case syntax.KindBinaryOp:
		if n.Name != "+" && n.Name != "%" {
			return false
		}
		return containsNonLiteral(n)
	case syntax.KindFormatString:
		return len(n.Children) > 0
	case syntax.KindCall:
		return strings.HasSuffix(n.Name, ".format") && containsNonLiteral(n)
	}
	return false
}

func containsNonLiteral(n *syntax.Node) bool {
	found := false
	syntax.Walk(n, func(c *syntax.Node) bool {
		switch c.Kind {
		case syntax.KindIdentifier, syntax.KindAttribute, syntax.KindSubscript, syntax.KindCall:
			found = true
			return false
		}
		return !found
	})
	return found
}

func checkShellConcat(n *syntax.Node) (string, bool) {
	if n.Kind != syntax.KindCall || !calleeMatches(n.Name, execLikeCallees) {
		return "", false
	}
	for _, arg := range n.Children {
		if builtFromParts(arg) {
			return fmt.Sprintf("command for %s is built from dynamic string parts", n.Name), true
		}
	}
	return "", false
}

func checkSQLConcat(n *syntax.Node) (string, bool) {
	if n.Kind != syntax.KindCall || !calleeMatches(n.Name, sqlExecuteCallees) {
		return "", false
	}
	for _, arg := range n.Children {
		if builtFromParts(arg) {
			return fmt.Sprintf("SQL statement for %s is built from dynamic string parts", n.Name), true
		}
	}
	return "", false
}

func checkDynamicEval(n *syntax.Node) (string, bool) {
	if n.Kind != syntax.KindCall || !calleeMatches(n.Name, evalCallees) {
		return "", false
	}
	for _, arg := range n.Children {
		if arg.Kind != syntax.KindLiteral {
			return fmt.Sprintf("%s evaluates a dynamically built expression", n.Name), true
		}
	}
	return "", false
}

func checkInsecureDeserialization(n *syntax.Node) (string, bool) {
	if n.Kind != syntax.KindCall {
		return "", false
	}
	switch {
	case calleeMatches(n.Name, []string{"pickle.loads", "pickle.load", "marshal.loads", "marshal.load"}):
		return fmt.Sprintf("%s deserializes arbitrary objects from its input", n.Name), true
	case calleeMatches(n.Name, []string{"yaml.load"}):
		for _, arg := range n.Children {
			if strings.Contains(arg.Name, "SafeLoader") || strings.Contains(arg.Name, "safe_load") {
				return "", false
			}
		}
		return "yaml.load without SafeLoader can construct arbitrary objects", true
	}
	return "", false
}

func checkHardcodedCredential(n *syntax.Node) (string, bool) {
	if n.Kind != syntax.KindAssignment || len(n.Children) < 2 {
		return "", false
	}
	lhs, rhs := n.Children[0], n.Children[1]
	if lhs.Name == "" || !credentialName.MatchString(lhs.Name) {
		return "", false
	}
	if rhs.Kind != syntax.KindLiteral {
		return "", false
	}
	value := strings.Trim(rhs.Name, `"'`+"`")
	if len(value) < 6 || isPlaceholder(value) {
		return "", false
	}
	return fmt.Sprintf("%s is assigned a hard-coded value", lhs.Name), true
}

func isPlaceholder(v string) bool {
	lower := strings.ToLower(v)
	for _, p := range []string{"changeme", "example", "placeholder", "your-", "xxx", "<", "todo"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func checkWeakDigest(n *syntax.Node) (string, bool) {
	if n.Kind != syntax.KindCall {
		return "", false
	}
	if calleeMatches(n.Name, []string{"hashlib.md5", "hashlib.sha1", "md5.New", "sha1.New", "md5.Sum", "sha1.Sum"}) {
		return fmt.Sprintf("%s uses a broken digest algorithm", n.Name), true
	}
	if strings.HasSuffix(n.Name, "createHash") {
		for _, arg := range n.Children {
			algo := strings.Trim(strings.ToLower(arg.Name), `"'`+"`")
			if algo == "md5" || algo == "sha1" {
				return fmt.Sprintf("createHash(%q) uses a broken digest algorithm", algo), true
			}
		}
	}
	return "", false
}

// checkExceptionSwallow flags a handler whose body neither acts on the
// error nor re-raises: only pass/ellipsis-style statements inside.
func checkExceptionSwallow(n *syntax.Node) (string, bool) {
	if n.Kind != syntax.KindExceptClause {
		return "", false
	}

	hasRaise := false
	hasWork := false
	syntax.Walk(n, func(c *syntax.Node) bool {
		if c == n {
			return true
		}
		switch c.Kind {
		case syntax.KindRaise:
			hasRaise = true
			return false
		case syntax.KindCall, syntax.KindAssignment, syntax.KindReturn:
			hasWork = true
			return false
		}
		return true
	})
	if hasRaise || hasWork {
		return "", false
	}
	return "exception handler swallows the error without acting on it", true
}

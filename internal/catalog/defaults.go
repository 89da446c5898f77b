package catalog

import (
	"github.com/clay-good/reviewr/internal/finding"
)

// defaultEntries is the built-in catalog covering the common untrusted
// inputs, dangerous operations, and escaping helpers of the supported
// languages. User catalogs extend, never replace, this set.
func defaultEntries() []Entry {
	return []Entry{
		// Sources: user-supplied input.
		{
			ID: "src.user-input", Role: RoleSource, Category: CategoryUserInput,
			Patterns: []string{
				"input", "raw_input", "sys.argv", "argv",
				"prompt", "process.argv",
				"os.Args", "flag.Arg", "flag.Args",
			},
			Description: "raw user-supplied argument or prompt",
		},
		{
			ID: "src.network-request", Role: RoleSource, Category: CategoryNetwork,
			Patterns: []string{
				"request.args.get", "request.form.get", "request.values.get",
				"request.args", "request.form", "request.json", "request.data",
				"request.cookies.get", "request.headers.get",
				"req.query", "req.body", "req.params", "req.cookies",
				"r.FormValue", "r.URL.Query.Get", "r.PostFormValue",
			},
			Description: "network request result",
		},
		{
			ID: "src.environment", Role: RoleSource, Category: CategoryEnvironment,
			Patterns: []string{
				"os.environ.get", "os.environ", "os.getenv",
				"process.env", "os.Getenv", "os.LookupEnv",
			},
			Description: "environment read",
		},
		{
			ID: "src.file-read", Role: RoleSource, Category: CategoryFilesystem,
			Patterns: []string{
				"readline", "readlines", "fs.readFileSync", "fs.readFile",
			},
			Description: "file content read",
		},

		// Sinks: dangerous operations.
		{
			ID: "sink.sql-execute", Role: RoleSink,
			Categories: []Category{CategoryUserInput, CategoryNetwork, CategoryEnvironment, CategoryFilesystem},
			Patterns: []string{
				"execute", "executemany", "executescript",
				"db.query", "db.Query", "db.Exec", "db.QueryRow",
			},
			Severity:    finding.SeverityCritical,
			Description: "SQL statement execution",
		},
		{
			ID: "sink.shell-exec", Role: RoleSink,
			Categories: []Category{CategoryUserInput, CategoryNetwork, CategoryEnvironment, CategoryFilesystem},
			Patterns: []string{
				"os.system", "os.popen", "subprocess.call", "subprocess.run",
				"subprocess.Popen", "subprocess.check_output", "subprocess.check_call",
				"child_process.exec", "child_process.execSync", "child_process.spawn",
				"exec.Command", "exec.CommandContext",
			},
			Severity:    finding.SeverityCritical,
			Description: "shell command execution",
		},
		{
			ID: "sink.code-eval", Role: RoleSink,
			Categories: []Category{CategoryUserInput, CategoryNetwork, CategoryEnvironment, CategoryFilesystem},
			Patterns:    []string{"eval", "exec", "compile", "Function", "vm.runInNewContext"},
			Severity:    finding.SeverityCritical,
			Description: "dynamic code evaluation",
		},
		{
			ID: "sink.path-open", Role: RoleSink,
			Categories: []Category{CategoryUserInput, CategoryNetwork},
			Patterns: []string{
				"open", "os.remove", "os.unlink", "shutil.rmtree", "os.rename",
				"fs.unlinkSync", "fs.rmSync", "fs.writeFileSync",
				"os.Open", "os.Create", "os.Remove", "os.RemoveAll",
			},
			Severity:    finding.SeverityHigh,
			Description: "filesystem access with attacker-controlled path",
		},
		{
			ID: "sink.deserialize", Role: RoleSink,
			Categories: []Category{CategoryUserInput, CategoryNetwork, CategoryFilesystem},
			Patterns: []string{
				"pickle.loads", "pickle.load", "yaml.load", "marshal.loads",
				"JSON.parse",
			},
			Severity:    finding.SeverityHigh,
			Description: "deserialization of untrusted data",
		},

		// Sanitizers: escaping and validation helpers, by the category of
		// tag they clear.
		{
			ID: "san.shell-quote", Role: RoleSanitizer,
			Categories: []Category{CategoryUserInput, CategoryNetwork, CategoryEnvironment, CategoryFilesystem},
			Patterns:    []string{"shlex.quote", "pipes.quote", "shellescape"},
			Description: "shell argument quoting",
		},
		{
			ID: "san.sql-escape", Role: RoleSanitizer,
			Categories: []Category{CategoryUserInput, CategoryNetwork, CategoryEnvironment, CategoryFilesystem},
			Patterns:    []string{"escape_string", "mysql.escape", "sqlescape"},
			Description: "SQL literal escaping",
		},
		{
			ID: "san.numeric-cast", Role: RoleSanitizer,
			Categories: []Category{CategoryUserInput, CategoryNetwork, CategoryEnvironment, CategoryFilesystem},
			Patterns:    []string{"int", "float", "parseInt", "parseFloat", "Number", "strconv.Atoi", "strconv.ParseInt", "strconv.ParseFloat"},
			Description: "numeric conversion discards shell/SQL metacharacters",
		},
		{
			ID: "san.path-clean", Role: RoleSanitizer,
			Categories: []Category{CategoryUserInput, CategoryNetwork},
			Patterns:    []string{"os.path.basename", "path.basename", "filepath.Base", "secure_filename", "filepath.Clean"},
			Description: "path normalization",
		},
		{
			ID: "san.html-escape", Role: RoleSanitizer,
			Categories: []Category{CategoryUserInput, CategoryNetwork},
			Patterns:    []string{"html.escape", "escapeHtml", "template.HTMLEscapeString"},
			Description: "HTML escaping",
		},
	}
}

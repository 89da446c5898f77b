package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/clay-good/reviewr/internal/engine"
	"github.com/clay-good/reviewr/internal/finding"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *engine.Report) error {
	total := report.Summary.Counts.Total()

	fmt.Fprintf(w, "## Reviewr Static Analysis\n\n")

	fmt.Fprintf(w, "| Severity | Count |\n")
	fmt.Fprintf(w, "|----------|-------|\n")
	fmt.Fprintf(w, "| Critical | %d    |\n", report.Summary.Counts.Critical)
	fmt.Fprintf(w, "| High     | %d    |\n", report.Summary.Counts.High)
	fmt.Fprintf(w, "| Medium   | %d    |\n", report.Summary.Counts.Medium)
	fmt.Fprintf(w, "| Low      | %d    |\n", report.Summary.Counts.Low)
	fmt.Fprintf(w, "| Info     | %d    |\n", report.Summary.Counts.Info)
	fmt.Fprintf(w, "| **Total** | **%d** |\n\n", total)

	if total == 0 {
		fmt.Fprintln(w, "No issues found. :white_check_mark:")
		return nil
	}

	grouped := groupBySeverity(report.Findings)
	for _, sev := range severityOrder {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		icon := mdSeverityIcon(sev)
		label := strings.ToUpper(string(sev))

		fmt.Fprintf(w, "<details>\n<summary>%s %s (%d)</summary>\n\n", icon, label, len(findings))

		for _, f := range findings {
			fmt.Fprintf(w, "### %s\n\n", f.RuleID)
			fmt.Fprintf(w, "**`%s:%d-%d`** | %s | Confidence: %.0f%%\n\n",
				f.Path, f.Lines.Start, f.Lines.End, f.Category, f.Confidence*100)
			fmt.Fprintf(w, "%s\n\n", f.Message)

			if f.Metric != nil {
				fmt.Fprintf(w, "`%s = %.1f`\n\n", f.Metric.Name, f.Metric.Value)
			}
			if f.Suggestion != "" {
				fmt.Fprintf(w, "**Suggestion:**\n\n")
				if looksLikeCode(f.Suggestion) {
					lang := inferLang(f.Path)
					fmt.Fprintf(w, "```%s\n%s\n```\n\n", lang, f.Suggestion)
				} else {
					fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(f.Suggestion, "\n", "\n> "))
				}
			}

			fmt.Fprintf(w, "---\n\n")
		}

		fmt.Fprintf(w, "</details>\n\n")
	}

	fmt.Fprintf(w, "*Analyzed %d file(s) in %dms (parse: %dms, analyze: %dms)*\n",
		len(report.Files), report.Timing.TotalMs, report.Timing.ParseMs, report.Timing.AnalyzeMs)

	return nil
}

func mdSeverityIcon(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical:
		return ":red_circle:"
	case finding.SeverityHigh:
		return ":orange_circle:"
	case finding.SeverityMedium:
		return ":yellow_circle:"
	case finding.SeverityLow:
		return ":white_circle:"
	case finding.SeverityInfo:
		return ":information_source:"
	default:
		return ":white_circle:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "if ", "for ", "return ", "var ", "const ",
		"def ", "class ", "import ", "from ",
		"{", "}", "=>", "->", ":=", "==",
		"()", "[];",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

func inferLang(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw":
		return "python"
	case ".js", ".mjs", ".cjs", ".jsx":
		return "javascript"
	case ".go":
		return "go"
	default:
		return ""
	}
}

package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/clay-good/reviewr/internal/engine"
	"github.com/clay-good/reviewr/internal/finding"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

var severityOrder = []finding.Severity{
	finding.SeverityCritical,
	finding.SeverityHigh,
	finding.SeverityMedium,
	finding.SeverityLow,
	finding.SeverityInfo,
}

func (t *TextWriter) Write(w io.Writer, report *engine.Report) error {
	ew := &errWriter{w: w}

	total := report.Summary.Counts.Total()
	ew.printf("Reviewr Static Analysis\n")
	ew.printf("Analyzed: %d file(s)\n", len(report.Files))
	if skipped := countSkipped(report); skipped > 0 {
		ew.printf("Skipped: %d file(s)\n", skipped)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Findings: %d total", total)
	if total > 0 {
		ew.printf(" (%d critical, %d high, %d medium, %d low, %d info)",
			report.Summary.Counts.Critical,
			report.Summary.Counts.High,
			report.Summary.Counts.Medium,
			report.Summary.Counts.Low,
			report.Summary.Counts.Info,
		)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if total == 0 {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	grouped := groupBySeverity(report.Findings)
	for _, sev := range severityOrder {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		label := strings.ToUpper(string(sev))
		ew.printf("\n%s %s\n", severityIcon(sev), label)
		ew.println(strings.Repeat("─", 40))

		for _, f := range findings {
			ew.printf("\n  %s:%d-%d  %s\n",
				f.Path, f.Lines.Start, f.Lines.End, f.RuleID)
			ew.printf("  Category: %s | Confidence: %.0f%%\n",
				f.Category, f.Confidence*100)

			for _, line := range wrapText(f.Message, 70) {
				ew.printf("    %s\n", line)
			}

			if f.Metric != nil {
				ew.printf("    %s = %.1f\n", f.Metric.Name, f.Metric.Value)
			}
			if f.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range wrapText(f.Suggestion, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (parse: %dms, analyze: %dms)\n",
		report.Timing.TotalMs, report.Timing.ParseMs, report.Timing.AnalyzeMs)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func countSkipped(report *engine.Report) int {
	n := 0
	for _, f := range report.Files {
		if f.Status == engine.StatusSkipped {
			n++
		}
	}
	return n
}

// groupBySeverity preserves the report order within each group, which is
// already path then line.
func groupBySeverity(findings []finding.Finding) map[finding.Severity][]finding.Finding {
	m := make(map[finding.Severity][]finding.Finding)
	for _, f := range findings {
		m[f.Severity] = append(m[f.Severity], f)
	}
	return m
}

func severityIcon(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical:
		return "[!!!]"
	case finding.SeverityHigh:
		return "[!!]"
	case finding.SeverityMedium:
		return "[!]"
	case finding.SeverityLow:
		return "[-]"
	case finding.SeverityInfo:
		return "[i]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

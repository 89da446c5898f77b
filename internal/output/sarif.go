package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/clay-good/reviewr/internal/engine"
	"github.com/clay-good/reviewr/internal/finding"
)

// SARIFWriter outputs findings in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *engine.Report) error {
	log, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating SARIF log: %w", err)
	}

	run := sarif.NewRunWithInformationURI(report.Tool, "https://github.com/clay-good/reviewr")

	// Rules register once, in first-seen order, which follows the report's
	// deterministic finding order.
	registered := make(map[string]bool)
	for _, f := range report.Findings {
		if !registered[f.RuleID] {
			registered[f.RuleID] = true
			run.AddRule(f.RuleID).
				WithDescription(string(f.Category)).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: toSarifLevel(f.Severity),
				})
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.Path)).
				WithRegion(sarif.NewRegion().
					WithStartLine(f.Lines.Start).
					WithEndLine(f.Lines.End)),
		)

		result := sarif.NewRuleResult(f.RuleID).
			WithMessage(sarif.NewTextMessage(f.Message)).
			WithLevel(toSarifLevel(f.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}

	log.AddRun(run)
	return log.PrettyWrite(w)
}

// toSarifLevel maps a finding severity to a SARIF level.
func toSarifLevel(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical, finding.SeverityHigh:
		return "error"
	case finding.SeverityMedium:
		return "warning"
	case finding.SeverityLow, finding.SeverityInfo:
		return "note"
	default:
		return "none"
	}
}

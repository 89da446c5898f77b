package finding

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Category represents which analysis family produced a finding.
type Category string

const (
	CategorySecurity   Category = "security"
	CategoryDataflow   Category = "dataflow"
	CategoryComplexity Category = "complexity"
	CategoryTypeSafety Category = "type_safety"
	CategorySemantic   Category = "semantic"
)

// LineRange represents a range of line numbers.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MetricValue carries the numeric metric behind a threshold finding.
type MetricValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Finding represents a single reported issue. It references a span that
// exists in the file that produced it, and is immutable after creation.
type Finding struct {
	ID         string       `json:"id"`
	RuleID     string       `json:"ruleId"`
	Severity   Severity     `json:"severity"`
	Category   Category     `json:"category"`
	Path       string       `json:"path"`
	Lines      LineRange    `json:"lines"`
	Message    string       `json:"message"`
	Suggestion string       `json:"suggestion,omitempty"`
	Metric     *MetricValue `json:"metric,omitempty"`
	Confidence float64      `json:"confidence"`
}

// NewID derives a stable finding ID from the rule, path, and start line.
func NewID(ruleID, path string, startLine int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", ruleID, path, startLine)))
	return fmt.Sprintf("%x", h[:8])
}

// Sort orders findings by severity (most severe first), then path, then
// start line, then rule ID for a full total order.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := SeverityRank(findings[i].Severity), SeverityRank(findings[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		if findings[i].Lines.Start != findings[j].Lines.Start {
			return findings[i].Lines.Start < findings[j].Lines.Start
		}
		return findings[i].RuleID < findings[j].RuleID
	})
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Total returns the sum across all severities.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// Summary provides an overview of a finding list.
type Summary struct {
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity,omitempty"`
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.Counts.Critical++
		case SeverityHigh:
			s.Counts.High++
		case SeverityMedium:
			s.Counts.Medium++
		case SeverityLow:
			s.Counts.Low++
		case SeverityInfo:
			s.Counts.Info++
		}
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}

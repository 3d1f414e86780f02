// Package compliance aggregates the live posture of the secrets and CSRF
// engines, plus auxiliary middleware state, into a single weighted
// report per environment tier. The auditor only reads; it never changes
// engine state.
package compliance

import (
	"fmt"

	"trustguard/internal/config"
)

// Severity ranks a violation
type Severity string

const (
	// SeverityCritical violations make the whole report non-compliant
	SeverityCritical Severity = "critical"

	// SeverityHigh violations degrade the score heavily
	SeverityHigh Severity = "high"

	// SeverityMedium violations degrade the score moderately
	SeverityMedium Severity = "medium"

	// SeverityLow violations degrade the score slightly
	SeverityLow Severity = "low"

	// SeverityInfo violations are advisory
	SeverityInfo Severity = "info"
)

// Weights maps severities to score deductions. The numbers are
// configuration, not constants: deployments with their own audit
// requirements swap in their own table.
type Weights map[Severity]float64

// DefaultWeights returns the standard severity weights
func DefaultWeights() Weights {
	return Weights{
		SeverityCritical: 25,
		SeverityHigh:     15,
		SeverityMedium:   10,
		SeverityLow:      5,
		SeverityInfo:     1,
	}
}

// Violation describes one observed gap between required and actual posture
type Violation struct {
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation"`
}

// Report is the result of one audit run. Derived value: recomputed on
// demand, never cached across environment changes.
type Report struct {
	Environment   string      `json:"environment"`
	Compliant     bool        `json:"compliant"`
	Violations    []Violation `json:"violations"`
	SecurityScore float64     `json:"security_score"`
}

// newReport scores the violations for an environment. The score starts
// at 100, loses each violation's weight and floors at 0. Compliant is
// true iff no Critical violation exists; High and below degrade the
// score without by themselves failing compliance.
func newReport(env config.Environment, violations []Violation, weights Weights) Report {
	score := 100.0
	compliant := true

	for _, v := range violations {
		score -= weights[v.Severity]
		if v.Severity == SeverityCritical {
			compliant = false
		}
	}

	if score < 0 {
		score = 0
	}

	return Report{
		Environment:   env.String(),
		Compliant:     compliant,
		Violations:    violations,
		SecurityScore: score,
	}
}

// Summary returns a one-line description of the report
func (r Report) Summary() string {
	return fmt.Sprintf("%s: score %.0f, %d violation(s), compliant=%t",
		r.Environment, r.SecurityScore, len(r.Violations), r.Compliant)
}

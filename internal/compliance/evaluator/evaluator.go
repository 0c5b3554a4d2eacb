// Package evaluator runs rule catalog procedures against content.
package evaluator

import (
	"strings"

	"adviserd/internal/compliance"
	"adviserd/internal/compliance/catalog"
	dErrors "adviserd/pkg/domain-errors"
)

// Result is a structured evaluation of one piece of content under one rule type.
type Result struct {
	Findings        []string
	Recommendations []string
	Severity        compliance.Severity
}

// Evaluate applies the catalog procedure for ruleType to content.
// This is pure domain logic - no I/O, no side effects. Same input always
// yields the same output. Matching is case-insensitive; severity is the
// maximum proposed by any step that produced a finding, starting at low.
func Evaluate(ruleType compliance.RuleType, content string) (Result, error) {
	steps, ok := catalog.For(ruleType)
	if !ok {
		return Result{}, dErrors.New(dErrors.CodeValidation, "unknown rule type "+string(ruleType))
	}

	lowered := strings.ToLower(content)
	result := Result{
		Findings:        []string{},
		Recommendations: []string{},
		Severity:        compliance.SeverityLow,
	}
	for _, step := range steps {
		for _, hit := range step.Eval(lowered) {
			if hit.Finding != "" {
				result.Findings = append(result.Findings, hit.Finding)
				result.Severity = compliance.MaxSeverity(result.Severity, hit.Severity)
			}
			if hit.Recommendation != "" {
				result.Recommendations = append(result.Recommendations, hit.Recommendation)
			}
		}
	}
	return result, nil
}

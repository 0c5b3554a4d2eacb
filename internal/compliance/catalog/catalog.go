// Package catalog is the static registry of regulatory rule definitions.
//
// Each rule type maps to an ordered list of evaluation steps: substring
// trigger scans, compiled regex detections, and keyword procedures. The
// steps are pure data consumed by the evaluator loop, so extending a rule
// is a table edit, never a control-flow change.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"adviserd/internal/compliance"
)

// Hit is one triggered detection: a finding, a recommendation, or both.
// A hit with an empty Finding is advisory only and never elevates severity.
type Hit struct {
	Finding        string
	Recommendation string
	Severity       compliance.Severity
}

// Step is one evaluation step in a rule procedure. Content passed to Eval is
// already lowercased; matching is case-insensitive throughout.
type Step interface {
	Eval(content string) []Hit
}

// TermScan produces one hit per matched case-insensitive substring trigger.
// Format strings receive the matched term.
type TermScan struct {
	Terms                []string
	Severity             compliance.Severity
	FindingFormat        string
	RecommendationFormat string
}

func (s TermScan) Eval(content string) []Hit {
	var hits []Hit
	for _, term := range s.Terms {
		if !strings.Contains(content, term) {
			continue
		}
		hit := Hit{Severity: s.Severity, Finding: fmt.Sprintf(s.FindingFormat, term)}
		if s.RecommendationFormat != "" {
			hit.Recommendation = fmt.Sprintf(s.RecommendationFormat, term)
		}
		hits = append(hits, hit)
	}
	return hits
}

// PatternMatch fires once when its expression matches anywhere in the content.
type PatternMatch struct {
	Expr           *regexp.Regexp
	Severity       compliance.Severity
	Finding        string
	Recommendation string
}

func (s PatternMatch) Eval(content string) []Hit {
	if !s.Expr.MatchString(content) {
		return nil
	}
	return []Hit{{Finding: s.Finding, Recommendation: s.Recommendation, Severity: s.Severity}}
}

// KeywordRule fires when all of its keyword conditions hold:
// at least one AnyOf keyword present (nil means unconditional), every AllOf
// keyword present, no AbsentAll keyword present, and Expr (when set) matching.
// An empty Finding makes the rule advisory: recommendation only.
type KeywordRule struct {
	AnyOf          []string
	AllOf          []string
	AbsentAll      []string
	Expr           *regexp.Regexp
	Severity       compliance.Severity
	Finding        string
	Recommendation string
}

func (s KeywordRule) Eval(content string) []Hit {
	if s.AnyOf != nil && !containsAny(content, s.AnyOf) {
		return nil
	}
	for _, keyword := range s.AllOf {
		if !strings.Contains(content, keyword) {
			return nil
		}
	}
	if containsAny(content, s.AbsentAll) {
		return nil
	}
	if s.Expr != nil && !s.Expr.MatchString(content) {
		return nil
	}
	return []Hit{{Finding: s.Finding, Recommendation: s.Recommendation, Severity: s.Severity}}
}

func containsAny(content string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(content, keyword) {
			return true
		}
	}
	return false
}

// substantiationTerms are superlative claims that require supporting evidence
// under both the SEC marketing rule and FINRA 2210.
var substantiationTerms = []string{"best", "top", "leading", "superior", "unmatched", "#1"}

var (
	performanceClaimExpr = regexp.MustCompile(`\d+%\s*(return|gain|profit|yield)`)
	ratingMentionExpr    = regexp.MustCompile(`\b(rating|ranking|star)s?\b`)
	promissoryExpr       = regexp.MustCompile(`will\s+(earn|make|return|grow|increase)`)
	ssnExpr              = regexp.MustCompile(`\d{3}-\d{2}-\d{4}`)
	cardNumberExpr       = regexp.MustCompile(`\b\d{16}\b`)
)

// rules maps each rule type to its ordered evaluation procedure.
var rules = map[compliance.RuleType][]Step{
	compliance.RuleSECMarketing: {
		TermScan{
			Terms:         []string{"guaranteed", "risk-free", "no risk", "sure thing", "can't lose", "certain profit"},
			Severity:      compliance.SeverityCritical,
			FindingFormat: "Prohibited term %q found - requires removal",
		},
		TermScan{
			Terms:                substantiationTerms,
			Severity:             compliance.SeverityHigh,
			FindingFormat:        "Unsubstantiated claim %q requires supporting evidence",
			RecommendationFormat: "Substantiate the claim %q or remove it",
		},
		PatternMatch{
			Expr:           performanceClaimExpr,
			Severity:       compliance.SeverityMedium,
			Finding:        "Performance claim detected - past performance disclosure required",
			Recommendation: "Add disclosure: past performance is not indicative of future results",
		},
		KeywordRule{
			AnyOf:          []string{"testimonial", "review", "endorsement"},
			AbsentAll:      []string{"compensated", "paid"},
			Severity:       compliance.SeverityMedium,
			Finding:        "Testimonial or endorsement without compensation disclosure",
			Recommendation: "Disclose whether the promoter was compensated for the testimonial",
		},
		KeywordRule{
			AnyOf:          []string{"testimonial", "review", "endorsement"},
			AbsentAll:      []string{"conflict", "material connection"},
			Recommendation: "Disclose any material conflicts of interest with promoters",
		},
		KeywordRule{
			AnyOf:          []string{"hypothetical", "backtested", "simulated"},
			AbsentAll:      []string{"disclaimer", "limitations"},
			Severity:       compliance.SeverityMedium,
			Finding:        "Hypothetical or simulated performance without limitations disclaimer",
			Recommendation: "Add a disclaimer describing the limitations of hypothetical performance",
		},
		PatternMatch{
			Expr:           ratingMentionExpr,
			Severity:       compliance.SeverityLow,
			Finding:        "Third-party rating or ranking reference detected",
			Recommendation: "Disclose the rating date, the identity of the rating provider, and any compensation paid",
		},
	},
	compliance.RuleFINRA2210: {
		KeywordRule{
			AbsentAll:      []string{"past performance"},
			Severity:       compliance.SeverityHigh,
			Finding:        "Missing past performance disclosure",
			Recommendation: "Add: 'Past performance does not guarantee future results'",
		},
		TermScan{
			Terms:         substantiationTerms,
			Severity:      compliance.SeverityMedium,
			FindingFormat: "Unsubstantiated claim %q requires supporting evidence",
		},
		KeywordRule{
			AnyOf:          []string{"benefit", "advantage", "opportunity"},
			AbsentAll:      []string{"risk", "loss", "volatility"},
			Severity:       compliance.SeverityMedium,
			Finding:        "Benefits presented without corresponding risk disclosure",
			Recommendation: "Provide a balanced presentation of risks and benefits",
		},
		KeywordRule{
			AnyOf:          []string{"will", "expect", "project"},
			Expr:           promissoryExpr,
			Severity:       compliance.SeverityLow,
			Finding:        "Promissory or predictive language detected",
			Recommendation: "Use hedged language; avoid promising future results",
		},
	},
	compliance.RuleGLBASafeguards: {
		PatternMatch{
			Expr:           ssnExpr,
			Severity:       compliance.SeverityCritical,
			Finding:        "Possible Social Security number detected in content",
			Recommendation: "Ensure proper handling of nonpublic personal information",
		},
		PatternMatch{
			Expr:           cardNumberExpr,
			Severity:       compliance.SeverityCritical,
			Finding:        "Possible card or account number detected in content",
			Recommendation: "Ensure proper handling of nonpublic personal information",
		},
	},
	compliance.RuleSECRegSP: {
		KeywordRule{
			AllOf:          []string{"share", "information"},
			AbsentAll:      []string{"opt-out", "privacy"},
			Severity:       compliance.SeverityLow,
			Finding:        "Information sharing described without opt-out or privacy notice",
			Recommendation: "Reference the firm's privacy notice and customer opt-out rights",
		},
	},
	compliance.RuleAMLKYC: {
		KeywordRule{
			AnyOf:          []string{"verify", "identity"},
			Recommendation: "Confirm customer identity verification and KYC documentation are on file",
		},
	},
}

// For returns the ordered evaluation procedure for the rule type.
func For(ruleType compliance.RuleType) ([]Step, bool) {
	steps, ok := rules[ruleType]
	return steps, ok
}

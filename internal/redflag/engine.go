package redflag

import (
	"strings"
)

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Issue is one finding produced by a rule. The aggregator attaches the
// owning document id and any supporting citation afterwards.
type Issue struct {
	Section    string   `json:"section"`
	Issue      string   `json:"issue"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion"`
}

// Input is what every rule sees: the raw text, its lowercased form, and the
// detected document type ("" when detection found nothing).
type Input struct {
	Text      string
	TextLower string
	DocType   string
}

// Rule is a pure predicate over Input. DocTypeTags scope a rule to document
// types whose name contains one of the tags (case-insensitive); an empty
// tag list makes the rule global. Rules must not share state; the engine
// relies on that for ordering guarantees and parallel batch runs.
type Rule struct {
	Name        string
	DocTypeTags []string
	Check       func(in Input) []Issue
}

type Engine struct {
	global  []Rule
	perType []Rule
}

func NewEngine() *Engine {
	return &Engine{
		global:  globalRules,
		perType: typeRules,
	}
}

// RunChecks evaluates all global rules, then the type-specific rules
// selected by docType, concatenating each rule's findings in registration
// order. A document with an unknown type runs every type-specific rule;
// their internal text guards keep irrelevant ones quiet. The result is
// deterministic for identical input and never nil.
func (e *Engine) RunChecks(text, docType string) []Issue {
	in := Input{
		Text:      text,
		TextLower: strings.ToLower(text),
		DocType:   docType,
	}

	issues := make([]Issue, 0)
	for _, rule := range e.global {
		issues = append(issues, rule.Check(in)...)
	}
	for _, rule := range e.perType {
		if docType == "" || matchesDocType(docType, rule.DocTypeTags) {
			issues = append(issues, rule.Check(in)...)
		}
	}
	return issues
}

func matchesDocType(docType string, tags []string) bool {
	lower := strings.ToLower(docType)
	for _, tag := range tags {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

// ScoreSummary aggregates issue severities for report prioritization.
type ScoreSummary struct {
	TotalScore int              `json:"total_score"`
	Counts     map[Severity]int `json:"severity_counts"`
	Priority   Severity         `json:"priority"`
}

var severityWeights = map[Severity]int{
	SeverityHigh:   3,
	SeverityMedium: 2,
	SeverityLow:    1,
}

func Score(issues []Issue) ScoreSummary {
	summary := ScoreSummary{
		Counts: map[Severity]int{
			SeverityHigh:   0,
			SeverityMedium: 0,
			SeverityLow:    0,
		},
	}

	for _, issue := range issues {
		severity := issue.Severity
		if _, ok := severityWeights[severity]; !ok {
			severity = SeverityMedium
		}
		summary.Counts[severity]++
		summary.TotalScore += severityWeights[severity]
	}

	switch {
	case summary.Counts[SeverityHigh] > 0:
		summary.Priority = SeverityHigh
	case summary.Counts[SeverityMedium] > 0:
		summary.Priority = SeverityMedium
	default:
		summary.Priority = SeverityLow
	}

	return summary
}

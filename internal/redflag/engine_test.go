package redflag

import (
	"reflect"
	"strings"
	"testing"
)

func TestJurisdictionFlagsFederalCourts(t *testing.T) {
	text := `ARTICLES OF ASSOCIATION
	This agreement shall be governed by the UAE Federal Courts.
	Share capital and directors are defined below. Purpose: trading.`

	issues := NewEngine().RunChecks(text, "Articles of Association")

	var found *Issue
	for i := range issues {
		if strings.Contains(issues[i].Issue, "UAE Federal Courts") {
			found = &issues[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("no UAE Federal Courts issue in %v", issues)
	}
	if found.Severity != SeverityHigh {
		t.Errorf("severity = %q, want High", found.Severity)
	}
	if !strings.Contains(found.Suggestion, "ADGM") {
		t.Errorf("suggestion %q does not reference ADGM", found.Suggestion)
	}
}

func TestJurisdictionClauseWithoutADGMCourts(t *testing.T) {
	text := "The parties submit to the exclusive jurisdiction of the competent courts."
	issues := NewEngine().RunChecks(text, "")

	found := false
	for _, issue := range issues {
		if strings.Contains(issue.Issue, "does not specify ADGM Courts") {
			found = true
			if issue.Severity != SeverityHigh {
				t.Errorf("severity = %q, want High", issue.Severity)
			}
		}
	}
	if !found {
		t.Errorf("missing jurisdiction-without-ADGM issue in %v", issues)
	}
}

func TestSignatureCheck(t *testing.T) {
	issues := NewEngine().RunChecks("This is a legal document without any execution provisions.", "")

	found := false
	for _, issue := range issues {
		if strings.Contains(issue.Issue, "signature block") {
			found = true
			if issue.Section != "End of document" {
				t.Errorf("section = %q, want End of document", issue.Section)
			}
		}
	}
	if !found {
		t.Error("missing signature-block issue")
	}
}

func TestNoSignatureIssueWhenExecuted(t *testing.T) {
	text := "Signed by the director for and on behalf of the company, in witness whereof. ADGM Courts have jurisdiction under ADGM regulation."
	for _, issue := range NewEngine().RunChecks(text, "") {
		if strings.Contains(issue.Issue, "signature block") {
			t.Errorf("unexpected signature issue: %v", issue)
		}
	}
}

func TestTypeSpecificRulesScoped(t *testing.T) {
	text := `MEMORANDUM OF ASSOCIATION of TestCorp
	The objects of the company are trading. Signed by the subscribers.
	ADGM regulations apply and ADGM Courts have jurisdiction (see ADGM Courts).`

	engine := NewEngine()

	moaIssues := engine.RunChecks(text, "Memorandum of Association")
	foundRegisteredOffice := false
	for _, issue := range moaIssues {
		if strings.Contains(issue.Issue, "registered office") {
			foundRegisteredOffice = true
		}
	}
	if !foundRegisteredOffice {
		t.Error("MoA rule did not flag missing registered office")
	}

	// The same text analyzed as an employment contract must not produce
	// MoA-specific issues beyond what its own guard allows.
	empIssues := engine.RunChecks("employment agreement, signed by both parties, adgm courts, adgm regulation applies, shall govern", "Employment Contract")
	for _, issue := range empIssues {
		if strings.Contains(issue.Issue, "registered office") {
			t.Errorf("MoA issue leaked into employment contract: %v", issue)
		}
	}
}

func TestUnknownTypeRunsAllTypeRules(t *testing.T) {
	text := `ULTIMATE BENEFICIAL OWNER DECLARATION signed by the declarant.
	ADGM Courts have jurisdiction; ADGM regulation applies. Shall be binding.`

	issues := NewEngine().RunChecks(text, "")

	found := false
	for _, issue := range issues {
		if strings.Contains(issue.Issue, "25% ownership threshold") {
			found = true
		}
	}
	if !found {
		t.Error("UBO rule did not run for unknown doc type")
	}
}

func TestEmptyDocument(t *testing.T) {
	issues := NewEngine().RunChecks("", "")

	if len(issues) == 0 {
		t.Fatal("expected issues for empty document")
	}
	if !strings.Contains(issues[0].Issue, "empty") || issues[0].Severity != SeverityHigh {
		t.Errorf("first issue = %+v, want High empty-document flag", issues[0])
	}
}

func TestRunChecksDeterministic(t *testing.T) {
	text := `ARTICLES OF ASSOCIATION
	Governed by Dubai Courts. Payment in USD as appropriate.
	Will be effective on 01/02/2024.`

	engine := NewEngine()
	first := engine.RunChecks(text, "Articles of Association")
	second := engine.RunChecks(text, "Articles of Association")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("rule engine not deterministic:\n%v\n%v", first, second)
	}
}

func TestFindSection(t *testing.T) {
	text := "PREAMBLE\n\nGOVERNING LAW\nThis contract is subject to the jurisdiction of ADGM Courts."

	if got := FindSection(text, "jurisdiction"); got != "GOVERNING LAW" {
		t.Errorf("FindSection = %q, want GOVERNING LAW", got)
	}

	// Two headings in the lookback window: the nearer one wins.
	stacked := "DEFINITIONS\nSection 1\nArticle 9\nAll disputes go to arbitration."
	if got := FindSection(stacked, "arbitration"); got != "Article 9" {
		t.Errorf("FindSection = %q, want Article 9", got)
	}
	if got := FindSection("no headings here\njurisdiction applies", "jurisdiction"); got != "Line 2" {
		t.Errorf("FindSection = %q, want Line 2", got)
	}
	if got := FindSection(text, "nonexistent"); got != "General" {
		t.Errorf("FindSection = %q, want General", got)
	}
}

func TestScoreSummary(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
		{Severity: SeverityMedium},
		{Severity: SeverityLow},
	}

	summary := Score(issues)
	if summary.TotalScore != 3+2+2+1 {
		t.Errorf("TotalScore = %d, want 8", summary.TotalScore)
	}
	if summary.Priority != SeverityHigh {
		t.Errorf("Priority = %q, want High", summary.Priority)
	}
	if summary.Counts[SeverityMedium] != 2 {
		t.Errorf("Medium count = %d, want 2", summary.Counts[SeverityMedium])
	}

	if got := Score(nil).Priority; got != SeverityLow {
		t.Errorf("empty Score priority = %q, want Low", got)
	}
}

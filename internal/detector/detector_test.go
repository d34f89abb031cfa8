package detector

import (
	"testing"

	"github.com/adgm-agent/backend/internal/registry"
)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	reg := registry.Default()
	if err := reg.Validate(); err != nil {
		t.Fatalf("registry validation: %v", err)
	}
	return New(reg)
}

func TestDetectArticlesOfAssociation(t *testing.T) {
	text := `
	ARTICLES OF ASSOCIATION
	of DemoCorp LLC

	Article 1 - Company Name
	The name of the company is DemoCorp LLC.

	Article 2 - Share Capital
	The authorized share capital is AED 150,000 divided into shares.

	Article 3 - Directors
	The company shall have at least one director. Clause provisions apply
	to shareholders and the company constitution.
	`

	matches := newDetector(t).Detect(text)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Type != "Articles of Association" {
		t.Errorf("expected Articles of Association first, got %q", matches[0].Type)
	}
	if matches[0].Confidence < 0.6 {
		t.Errorf("confidence %v below signature threshold", matches[0].Confidence)
	}
}

func TestDetectUBODeclaration(t *testing.T) {
	text := `
	ULTIMATE BENEFICIAL OWNER DECLARATION

	I hereby declare, confirm and certify that the following individuals
	hold beneficial ownership of 25% or more of the shares and exercise
	control over the company.
	`

	matches := newDetector(t).Detect(text)
	found := false
	for _, m := range matches {
		if m.Type == "UBO Declaration" {
			found = true
		}
	}
	if !found {
		t.Errorf("UBO Declaration not detected, matches: %v", matches)
	}
}

func TestDetectEmptyText(t *testing.T) {
	d := newDetector(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		matches := d.Detect(text)
		if len(matches) != 0 {
			t.Errorf("Detect(%q) = %v, want empty", text, matches)
		}
	}
}

func TestDetectNoKeywordHits(t *testing.T) {
	matches := newDetector(t).Detect("the quick brown fox jumps over the lazy dog")
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

func TestDetectOrderedByConfidence(t *testing.T) {
	// Hybrid text hitting both resolution signatures.
	text := `
	BOARD RESOLUTION
	At a board meeting of the directors, duly held, it was resolved that
	the company approves the matter by unanimous consent. Meeting held at
	the registered office. Resolved that the general meeting of the
	shareholders be convened by shareholder resolution.
	`

	matches := newDetector(t).Detect(text)
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Confidence < matches[i].Confidence {
			t.Fatalf("matches not sorted descending: %v", matches)
		}
	}
}

func TestDetectDeterministic(t *testing.T) {
	d := newDetector(t)
	text := "employment agreement between employer and employee regarding salary and duties, terms of employment"

	first := d.Detect(text)
	second := d.Detect(text)

	if len(first) != len(second) {
		t.Fatalf("nondeterministic match count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("match %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestFallbackLabel(t *testing.T) {
	d := newDetector(t)

	tests := []struct {
		text string
		want string
	}{
		{"this is a general business agreement between parties", "General Agreement"},
		{"", "Unknown"},
		{"completely unrelated short text", "Short Form/Notice"},
	}

	for _, tt := range tests {
		if got := d.FallbackLabel(tt.text); got != tt.want {
			t.Errorf("FallbackLabel(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

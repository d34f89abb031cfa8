package detector

import (
	"regexp"
	"sort"
	"strings"

	"github.com/adgm-agent/backend/internal/registry"
)

// Keyword class weights. Primary phrases dominate; exclusions subtract.
const (
	primaryWeight     = 0.5
	secondaryWeight   = 0.1
	structureWeight   = 0.15
	exclusionPenalty  = 0.2
	multiPrimaryBonus = 0.1
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// TypeMatch is one scored candidate for a document's type.
type TypeMatch struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

type Detector struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Detector {
	return &Detector{reg: reg}
}

// Detect scores text against every signature in the registry and returns
// the candidates that clear their own threshold, highest confidence first.
// Ties keep registry declaration order. Empty or unmatchable text returns
// an empty slice, never an error.
func (d *Detector) Detect(text string) []TypeMatch {
	if strings.TrimSpace(text) == "" {
		return []TypeMatch{}
	}

	normalized := normalize(text)

	matches := make([]TypeMatch, 0, 2)
	for _, sig := range d.reg.Signatures {
		confidence := scoreSignature(normalized, sig)
		if confidence >= sig.ConfidenceThreshold {
			matches = append(matches, TypeMatch{Type: sig.Name, Confidence: confidence})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return matches
}

// FallbackLabel produces a best-effort label for text that matched no
// signature. The label is presentational only; it never feeds process
// inference.
func (d *Detector) FallbackLabel(text string) string {
	normalized := normalize(text)
	if normalized == "" {
		return "Unknown"
	}

	for _, fb := range d.reg.Fallbacks {
		if strings.Contains(normalized, fb.Keyword) {
			return fb.Label
		}
	}

	wordCount := len(strings.Fields(normalized))
	switch {
	case wordCount < 100:
		return "Short Form/Notice"
	case wordCount > 2000:
		return "Complex Legal Document"
	default:
		return "Standard Business Document"
	}
}

func normalize(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(strings.ToLower(text), " "))
}

func scoreSignature(text string, sig registry.TypeSignature) float64 {
	var score, totalPossible float64

	primaryFound := 0
	for _, keyword := range sig.PrimaryKeywords {
		totalPossible += primaryWeight
		if strings.Contains(text, keyword) {
			primaryFound++
			score += primaryWeight
		}
	}
	if primaryFound > 1 {
		score += multiPrimaryBonus
	}

	for _, keyword := range sig.SecondaryKeywords {
		totalPossible += secondaryWeight
		if strings.Contains(text, keyword) {
			score += secondaryWeight
		}
	}

	for _, indicator := range sig.StructureIndicators {
		totalPossible += structureWeight
		if strings.Contains(text, indicator) {
			score += structureWeight
		}
	}

	for _, exclusion := range sig.ExclusionKeywords {
		if strings.Contains(text, exclusion) {
			score -= exclusionPenalty
		}
	}

	if totalPossible == 0 {
		return 0
	}

	confidence := score / totalPossible
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

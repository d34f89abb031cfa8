package registry

import (
	"errors"
	"fmt"
)

// ErrInvalidRegistry marks configuration errors that must abort startup.
// The pipeline never runs against a partially valid registry.
var ErrInvalidRegistry = errors.New("invalid pattern registry")

// TypeSignature is the keyword configuration used to recognize one document
// type. Pure data; the scoring lives in the detector.
type TypeSignature struct {
	Name                string
	PrimaryKeywords     []string
	SecondaryKeywords   []string
	ExclusionKeywords   []string
	StructureIndicators []string
	ConfidenceThreshold float64
}

// ProcessChecklist names a legal process and the document types it requires.
// Order is the declaration order and is preserved in reports.
type ProcessChecklist struct {
	Name          string
	RequiredTypes []string
}

// FallbackLabel maps a generic keyword to a best-effort document label used
// when no signature clears its threshold.
type FallbackLabel struct {
	Keyword string
	Label   string
}

type Registry struct {
	Signatures []TypeSignature
	Checklists []ProcessChecklist
	Fallbacks  []FallbackLabel
}

// Default returns the built-in ADGM registry. Callers must still run
// Validate before wiring it into the pipeline.
func Default() *Registry {
	return &Registry{
		Signatures: documentSignatures,
		Checklists: processChecklists,
		Fallbacks:  fallbackLabels,
	}
}

func (r *Registry) Validate() error {
	if len(r.Signatures) == 0 {
		return fmt.Errorf("%w: no type signatures", ErrInvalidRegistry)
	}

	seenTypes := make(map[string]bool, len(r.Signatures))
	for i, sig := range r.Signatures {
		if sig.Name == "" {
			return fmt.Errorf("%w: signature %d has empty name", ErrInvalidRegistry, i)
		}
		if seenTypes[sig.Name] {
			return fmt.Errorf("%w: duplicate signature %q", ErrInvalidRegistry, sig.Name)
		}
		seenTypes[sig.Name] = true
		if len(sig.PrimaryKeywords) == 0 {
			return fmt.Errorf("%w: signature %q has no primary keywords", ErrInvalidRegistry, sig.Name)
		}
		if sig.ConfidenceThreshold <= 0 || sig.ConfidenceThreshold > 1 {
			return fmt.Errorf("%w: signature %q threshold %v outside (0,1]", ErrInvalidRegistry, sig.Name, sig.ConfidenceThreshold)
		}
	}

	seenProcs := make(map[string]bool, len(r.Checklists))
	for _, cl := range r.Checklists {
		if cl.Name == "" {
			return fmt.Errorf("%w: checklist with empty name", ErrInvalidRegistry)
		}
		if seenProcs[cl.Name] {
			return fmt.Errorf("%w: duplicate checklist %q", ErrInvalidRegistry, cl.Name)
		}
		seenProcs[cl.Name] = true
		if len(cl.RequiredTypes) == 0 {
			return fmt.Errorf("%w: checklist %q requires no document types", ErrInvalidRegistry, cl.Name)
		}
		seenReq := make(map[string]bool, len(cl.RequiredTypes))
		for _, req := range cl.RequiredTypes {
			if req == "" {
				return fmt.Errorf("%w: checklist %q has empty required type", ErrInvalidRegistry, cl.Name)
			}
			if seenReq[req] {
				return fmt.Errorf("%w: checklist %q lists %q twice", ErrInvalidRegistry, cl.Name, req)
			}
			seenReq[req] = true
		}
	}

	return nil
}

// Checklist returns the checklist with the given process name.
func (r *Registry) Checklist(name string) (ProcessChecklist, bool) {
	for _, cl := range r.Checklists {
		if cl.Name == name {
			return cl, true
		}
	}
	return ProcessChecklist{}, false
}

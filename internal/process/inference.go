package process

import (
	"github.com/adgm-agent/backend/internal/registry"
)

// Inferencer maps the detected document types of a batch to the most likely
// legal process and computes checklist gaps.
//
// Policy: the caller feeds it one type per document, the best match above
// threshold. Feeding every above-threshold match would let a single hybrid
// document satisfy several checklist slots.
type Inferencer struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Inferencer {
	return &Inferencer{reg: reg}
}

// InferProcess scores each checklist by the fraction of its required types
// present in the detected set and returns the best one. Ties keep checklist
// declaration order. A checklist needs at least one required type present to
// qualify; if none does, the process is unknown and "" is returned.
func (p *Inferencer) InferProcess(detectedTypes []string) string {
	present := toSet(detectedTypes)
	if len(present) == 0 {
		return ""
	}

	best := ""
	bestScore := 0.0

	for _, cl := range p.reg.Checklists {
		overlap := 0
		for _, req := range cl.RequiredTypes {
			if present[req] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		score := float64(overlap) / float64(len(cl.RequiredTypes))
		if score > bestScore {
			bestScore = score
			best = cl.Name
		}
	}

	return best
}

// Missing returns the checklist's required types absent from the detected
// set, preserving the checklist's declared order. An unknown or empty
// process yields nil: there is no checklist to compare against.
func (p *Inferencer) Missing(processName string, detectedTypes []string) []string {
	cl, ok := p.reg.Checklist(processName)
	if !ok {
		return nil
	}

	present := toSet(detectedTypes)

	var missing []string
	for _, req := range cl.RequiredTypes {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	return missing
}

// RequiredCount reports the checklist size, or 0 for an unknown process so
// that "no checklist" is distinguishable from "nothing missing" in reports.
func (p *Inferencer) RequiredCount(processName string) int {
	cl, ok := p.reg.Checklist(processName)
	if !ok {
		return 0
	}
	return len(cl.RequiredTypes)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		if name != "" {
			set[name] = true
		}
	}
	return set
}

package redflag

import (
	"fmt"
	"strings"
)

// FindSection locates a best-effort human-readable section label for the
// line containing term: the nearest heading in the five lines above it
// (an ALL-CAPS line, a Section/Article prefix, or a line ending in a
// colon), falling back to a line number, then "General".
func FindSection(text, term string) string {
	if term == "" || text == "" {
		return "General"
	}

	termLower := strings.ToLower(term)
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), termLower) {
			continue
		}

		start := i - 5
		if start < 0 {
			start = 0
		}
		for j := i - 1; j >= start; j-- {
			candidate := strings.TrimSpace(lines[j])
			if candidate == "" {
				continue
			}
			if isHeading(candidate) {
				return candidate
			}
		}
		return fmt.Sprintf("Line %d", i+1)
	}

	return "General"
}

func isHeading(line string) bool {
	if strings.HasPrefix(line, "Section") || strings.HasPrefix(line, "Article") {
		return true
	}
	if strings.HasSuffix(line, ":") {
		return true
	}
	return isAllUpper(line)
}

func isAllUpper(line string) bool {
	hasLetter := false
	for _, r := range line {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

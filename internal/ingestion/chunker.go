package ingestion

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// headingRE matches the locator headings regulatory documents use, e.g.
// "Article 15", "Section 4.2", "Part 3", "Schedule 1".
var headingRE = regexp.MustCompile(`(?i)^(article|section|part|chapter|schedule|regulation|clause)\s+\d+[A-Za-z]?(\.\d+)*\b`)

type section struct {
	locator string
	text    string
}

type piece struct {
	locator string
	text    string
}

// splitSections walks the document line by line and groups text under the
// most recent locator heading. Text before the first heading carries an
// empty locator.
func splitSections(text string) []section {
	var sections []section
	current := section{}

	flush := func() {
		current.text = strings.TrimSpace(current.text)
		if current.text != "" {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			current.text += "\n"
			continue
		}

		if m := headingRE.FindString(trimmed); m != "" && len(trimmed) < 80 {
			flush()
			current = section{locator: canonicalLocator(m)}
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, m))
			rest = strings.TrimLeft(rest, ":.-– ")
			if rest != "" {
				current.text = rest + "\n"
			}
			continue
		}

		current.text += trimmed + "\n"
	}
	flush()

	return sections
}

// canonicalLocator title-cases the heading keyword so "ARTICLE 15" and
// "article 15" both cite as "Article 15".
func canonicalLocator(heading string) string {
	fields := strings.Fields(heading)
	if len(fields) == 0 {
		return heading
	}
	word := strings.ToLower(fields[0])
	fields[0] = strings.ToUpper(word[:1]) + word[1:]
	return strings.Join(fields, " ")
}

// chunkSections splits each section into chunks of roughly chunkSize
// characters on sentence boundaries, with chunkOverlap characters of
// trailing sentences repeated at the start of the next chunk. Chunks never
// span section boundaries so every chunk has a single honest locator.
func (p *Processor) chunkSections(sections []section) []piece {
	var pieces []piece
	for _, sec := range sections {
		for _, text := range p.chunkText(sec.text) {
			pieces = append(pieces, piece{locator: sec.locator, text: text})
		}
	}
	return pieces
}

func (p *Processor) chunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= p.chunkSize {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		if currentLen+len(sentence)+1 > p.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			// Carry trailing sentences up to the overlap limit.
			var overlap []string
			overlapLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				if overlapLen+len(current[i])+1 > p.chunkOverlap {
					break
				}
				overlap = append([]string{current[i]}, overlap...)
				overlapLen += len(current[i]) + 1
			}
			current = overlap
			currentLen = overlapLen
		}

		current = append(current, sentence)
		currentLen += len(sentence) + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// splitSentences segments text into sentences, falling back to a crude
// line split when the segmenter fails.
func splitSentences(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return strings.Split(text, "\n")
	}

	var sentences []string
	for _, s := range doc.Sentences() {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

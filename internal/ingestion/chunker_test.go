package ingestion

import (
	"strings"
	"testing"
)

const sampleRegulation = `ADGM Companies Regulations 2020

Article 14
A company must have articles of association in the prescribed form.

Article 15
The articles of association must state that any dispute arising shall be
subject to the exclusive jurisdiction of the ADGM Courts. The articles may
not designate any other forum for the resolution of disputes.

Article 16
Every company shall maintain a register of members.`

func TestSplitSectionsAssignsLocators(t *testing.T) {
	sections := splitSections(sampleRegulation)

	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}
	if sections[0].locator != "" {
		t.Errorf("preamble should have empty locator, got %q", sections[0].locator)
	}
	if sections[1].locator != "Article 14" {
		t.Errorf("expected locator Article 14, got %q", sections[1].locator)
	}
	if sections[2].locator != "Article 15" {
		t.Errorf("expected locator Article 15, got %q", sections[2].locator)
	}
	if !strings.Contains(sections[2].text, "ADGM Courts") {
		t.Errorf("Article 15 text missing content: %q", sections[2].text)
	}
}

func TestSplitSectionsCanonicalizesHeadings(t *testing.T) {
	sections := splitSections("ARTICLE 7\nSome rule text.\n\nsection 12\nMore text.")

	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].locator != "Article 7" {
		t.Errorf("expected Article 7, got %q", sections[0].locator)
	}
	if sections[1].locator != "Section 12" {
		t.Errorf("expected Section 12, got %q", sections[1].locator)
	}
}

func TestChunkTextRespectsSize(t *testing.T) {
	p := NewProcessor(nil, nil, nil, 200, 40)

	sentence := "The registrar shall keep a record of every filing made under these regulations."
	text := strings.Repeat(sentence+" ", 20)

	chunks := p.chunkText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		// A chunk may exceed the size limit only when a single sentence does.
		if len(chunk) > 200+len(sentence) {
			t.Errorf("chunk %d too large: %d chars", i, len(chunk))
		}
	}
}

func TestChunkTextOverlap(t *testing.T) {
	p := NewProcessor(nil, nil, nil, 120, 60)

	text := "First sentence about companies. Second sentence about members. Third sentence about directors. Fourth sentence about shares."
	chunks := p.chunkText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	last := chunks[0][strings.LastIndex(chunks[0], ". ")+2:]
	if !strings.Contains(chunks[1], strings.TrimSuffix(last, ".")) {
		t.Errorf("expected overlap between chunks:\n%q\n%q", chunks[0], chunks[1])
	}
}

func TestChunkTextShortInput(t *testing.T) {
	p := NewProcessor(nil, nil, nil, 800, 100)

	chunks := p.chunkText("One short clause.")
	if len(chunks) != 1 || chunks[0] != "One short clause." {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
	if got := p.chunkText("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestCleanHTMLKeepsHeadings(t *testing.T) {
	html := `<html><head><title>ADGM Employment Regulations 2019</title>
<script>var x = 1;</script></head>
<body><nav>menu</nav><h2>Section 4</h2><p>An employer shall provide a written contract.</p></body></html>`

	text := cleanHTML(html)
	if !strings.Contains(text, "Section 4") {
		t.Errorf("heading lost: %q", text)
	}
	if !strings.Contains(text, "written contract") {
		t.Errorf("body text lost: %q", text)
	}
	if strings.Contains(text, "var x") || strings.Contains(text, "menu") {
		t.Errorf("boilerplate not stripped: %q", text)
	}

	if got := extractTitle(html); got != "ADGM Employment Regulations 2019" {
		t.Errorf("unexpected title: %q", got)
	}
}

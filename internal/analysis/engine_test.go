package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adgm-agent/backend/internal/redflag"
	"github.com/adgm-agent/backend/internal/registry"
	"github.com/adgm-agent/backend/internal/retrieval"
)

type stubRetriever struct {
	citations []retrieval.Citation
	err       error

	mu    sync.Mutex
	calls int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, _ int) ([]retrieval.Citation, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.citations, s.err
}

type stubCitationCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func (s *stubCitationCache) GetCitation(_ context.Context, queryHash string, citation interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[queryHash]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, citation)
}

func (s *stubCitationCache) SetCitation(_ context.Context, queryHash string, citation interface{}, _ time.Duration) error {
	data, err := json.Marshal(citation)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string][]byte)
	}
	s.entries[queryHash] = data
	s.sets++
	return nil
}

func newEngine(t *testing.T, retriever Retriever) *Engine {
	t.Helper()
	reg := registry.Default()
	if err := reg.Validate(); err != nil {
		t.Fatalf("registry validation: %v", err)
	}
	return NewEngine(reg, retriever, nil, nil, Config{
		Concurrency:      4,
		TopK:             3,
		MinCitationScore: 0.30,
		MinIssueQuery:    12,
	})
}

const aoaText = `
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

const moaText = `
MEMORANDUM OF ASSOCIATION

WHEREAS the subscribers wish to establish a company in ADGM, NOW THEREFORE
the company name shall be DemoCorp LLC, the registered office shall be
situated in Al Maryah Island, the objects of the company are general
trading, and the liability of the members is limited by shares.
`

const uboText = `
ULTIMATE BENEFICIAL OWNER DECLARATION

I hereby declare, confirm and certify that the following individuals
hold beneficial ownership of 25% or more of the shares and exercise
control over the company.
`

const boardText = `
BOARD RESOLUTION

At a board meeting of the directors, duly convened and meeting held at the
registered office, it was resolved that the company approve the application
by unanimous vote of the directors. Resolved that the secretary file the
required forms.
`

func incorporationBatch() []Document {
	return []Document{
		{ID: "aoa.docx", Text: aoaText},
		{ID: "moa.docx", Text: moaText},
		{ID: "ubo.docx", Text: uboText},
		{ID: "resolution.docx", Text: boardText},
	}
}

func TestAnalyzeIncorporationBatch(t *testing.T) {
	engine := newEngine(t, nil)

	report, err := engine.Analyze(context.Background(), incorporationBatch())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if report.Process != "Company Incorporation" {
		t.Errorf("expected Company Incorporation, got %q", report.Process)
	}
	if report.DocumentsUploaded != 4 {
		t.Errorf("documents_uploaded = %d, want 4", report.DocumentsUploaded)
	}
	if report.RequiredDocuments != 5 {
		t.Errorf("required_documents = %d, want 5", report.RequiredDocuments)
	}

	want := []string{"Incorporation Application", "Register of Members and Directors"}
	if len(report.MissingDocuments) != len(want) {
		t.Fatalf("missing_document = %v, want %v", report.MissingDocuments, want)
	}
	for i := range want {
		if report.MissingDocuments[i] != want[i] {
			t.Errorf("missing_document[%d] = %q, want %q", i, report.MissingDocuments[i], want[i])
		}
	}
}

func TestAnalyzeTotalAndOrdered(t *testing.T) {
	engine := newEngine(t, nil)
	docs := []Document{
		{ID: "a", Text: aoaText},
		{ID: "b", Text: ""},
		{ID: "c", Text: "the quick brown fox jumps over the lazy dog"},
		{ID: "d", Text: uboText},
	}

	report, err := engine.Analyze(context.Background(), docs)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if len(report.Documents) != len(docs) {
		t.Fatalf("expected %d records, got %d", len(docs), len(report.Documents))
	}
	for i, doc := range docs {
		if report.Documents[i].Document != doc.ID {
			t.Errorf("record %d is %q, want %q", i, report.Documents[i].Document, doc.ID)
		}
		if report.Documents[i].DetectedTypes == nil {
			t.Errorf("record %d has nil detected_types", i)
		}
		if report.Documents[i].Issues == nil {
			t.Errorf("record %d has nil issues", i)
		}
	}
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	engine := newEngine(t, nil)

	report, err := engine.Analyze(context.Background(), []Document{{ID: "blank.docx", Text: ""}})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	rec := report.Documents[0]
	if len(rec.DetectedTypes) != 0 {
		t.Errorf("expected no detected types, got %v", rec.DetectedTypes)
	}
	if rec.DocType != "Unknown" {
		t.Errorf("expected Unknown fallback label, got %q", rec.DocType)
	}

	foundEmpty := false
	for _, issue := range rec.Issues {
		if issue.Severity == redflag.SeverityHigh && strings.Contains(strings.ToLower(issue.Issue), "empty") {
			foundEmpty = true
		}
	}
	if !foundEmpty {
		t.Errorf("expected a High empty-document issue, got %v", rec.Issues)
	}

	if report.Process != "" {
		t.Errorf("expected null process, got %q", report.Process)
	}
	if report.RequiredDocuments != 0 {
		t.Errorf("required_documents = %d, want 0", report.RequiredDocuments)
	}
}

func TestAnalyzeAttachesCitations(t *testing.T) {
	stub := &stubRetriever{citations: []retrieval.Citation{{
		Source:  "ADGM Companies Regulations 2020, Article 15",
		Excerpt: "disputes are subject to the jurisdiction of the ADGM Courts",
		Score:   0.92,
	}}}
	engine := newEngine(t, stub)

	text := aoaText + "\nAll disputes shall be settled before the UAE Federal Courts."
	report, err := engine.Analyze(context.Background(), []Document{{ID: "aoa.docx", Text: text}})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	var jurisdiction *Issue
	for i := range report.IssuesFound {
		issue := &report.IssuesFound[i]
		if issue.Severity == redflag.SeverityHigh && strings.Contains(strings.ToLower(issue.Issue), "federal") {
			jurisdiction = issue
		}
	}
	if jurisdiction == nil {
		t.Fatalf("jurisdiction issue not found in %v", report.IssuesFound)
	}
	if jurisdiction.Citation == nil {
		t.Fatal("expected citation on jurisdiction issue")
	}
	if jurisdiction.Citation.Citation != "ADGM Companies Regulations 2020, Article 15" {
		t.Errorf("unexpected citation: %q", jurisdiction.Citation.Citation)
	}
	if jurisdiction.Citation.Excerpt == "" {
		t.Error("expected non-empty excerpt")
	}
	if stub.calls == 0 {
		t.Error("retriever was never consulted")
	}
}

func TestAnalyzeLowScoreCitationsDropped(t *testing.T) {
	stub := &stubRetriever{citations: []retrieval.Citation{{
		Source:  "ADGM Companies Regulations 2020, Article 15",
		Excerpt: "irrelevant",
		Score:   0.10,
	}}}
	engine := newEngine(t, stub)

	report, err := engine.Analyze(context.Background(), incorporationBatch())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	for _, issue := range report.IssuesFound {
		if issue.Citation != nil {
			t.Fatalf("citation below threshold attached: %+v", issue)
		}
	}
}

func TestAnalyzeRetrieverFailureDegrades(t *testing.T) {
	stub := &stubRetriever{err: errors.Join(retrieval.ErrUnavailable, errors.New("dial tcp: refused"))}
	engine := newEngine(t, stub)

	report, err := engine.Analyze(context.Background(), incorporationBatch())
	if err != nil {
		t.Fatalf("retrieval failure must not fail the batch: %v", err)
	}
	for _, issue := range report.IssuesFound {
		if issue.Citation != nil {
			t.Fatalf("citation attached despite retriever failure: %+v", issue)
		}
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	engine := newEngine(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := engine.Analyze(ctx, incorporationBatch())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil {
		t.Fatal("expected partial report on cancellation")
	}
	if report.DocumentsUploaded != 4 {
		t.Errorf("documents_uploaded = %d, want 4", report.DocumentsUploaded)
	}
	if len(report.Documents) != 0 {
		// A pre-cancelled context must not dispatch any document.
		t.Errorf("expected no records, got %d", len(report.Documents))
	}
}

func TestAnalyzeCitationCacheReadThrough(t *testing.T) {
	stub := &stubRetriever{citations: []retrieval.Citation{{
		Source:  "ADGM Companies Regulations 2020, Article 15",
		Excerpt: "disputes are subject to the jurisdiction of the ADGM Courts",
		Score:   0.92,
	}}}
	cache := &stubCitationCache{}

	reg := registry.Default()
	if err := reg.Validate(); err != nil {
		t.Fatalf("registry validation: %v", err)
	}
	engine := NewEngine(reg, stub, nil, cache, Config{
		Concurrency:      1,
		TopK:             3,
		MinCitationScore: 0.30,
		MinIssueQuery:    12,
	})

	docs := []Document{{ID: "aoa.docx", Text: aoaText + "\nAll disputes shall be settled before the UAE Federal Courts."}}

	if _, err := engine.Analyze(context.Background(), docs); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if cache.sets == 0 {
		t.Fatal("no citations were cached on the first run")
	}
	callsAfterFirst := stub.calls

	report, err := engine.Analyze(context.Background(), docs)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if stub.calls != callsAfterFirst {
		t.Errorf("retriever consulted %d more times despite warm cache", stub.calls-callsAfterFirst)
	}

	found := false
	for _, issue := range report.IssuesFound {
		if issue.Citation != nil && issue.Citation.Citation == "ADGM Companies Regulations 2020, Article 15" {
			found = true
		}
	}
	if !found {
		t.Error("cached citation was not attached on the second run")
	}
}

func TestAnalyzeWithProgressStreamsRecords(t *testing.T) {
	engine := newEngine(t, nil)
	batch := incorporationBatch()

	var mu sync.Mutex
	var seen []string
	report, err := engine.AnalyzeWithProgress(context.Background(), batch, func(rec DocumentRecord) {
		mu.Lock()
		seen = append(seen, rec.Document)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("AnalyzeWithProgress returned error: %v", err)
	}

	if len(seen) != len(batch) {
		t.Fatalf("got %d progress callbacks, want %d", len(seen), len(batch))
	}
	ids := make(map[string]bool, len(seen))
	for _, id := range seen {
		ids[id] = true
	}
	for _, doc := range batch {
		if !ids[doc.ID] {
			t.Errorf("no progress callback for %q", doc.ID)
		}
	}
	if len(report.Documents) != len(batch) {
		t.Errorf("report has %d records, want %d", len(report.Documents), len(batch))
	}
}

func TestReportJSONKeys(t *testing.T) {
	engine := newEngine(t, nil)

	report, err := engine.Analyze(context.Background(), []Document{
		{ID: "note.docx", Text: "the quick brown fox jumps over the lazy dog"},
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	for _, key := range []string{
		"process", "documents_uploaded", "required_documents",
		"missing_document", "issues_found", "documents", "severity_summary",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report JSON missing key %q", key)
		}
	}

	if string(decoded["process"]) != "null" {
		t.Errorf("unknown process should serialize as null, got %s", decoded["process"])
	}
	if string(decoded["missing_document"]) != "[]" {
		t.Errorf("missing_document should be an empty list, got %s", decoded["missing_document"])
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	engine := newEngine(t, nil)
	batch := incorporationBatch()

	first, err := engine.Analyze(context.Background(), batch)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	second, err := engine.Analyze(context.Background(), batch)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("reports differ across identical runs:\n%s\n%s", a, b)
	}
}

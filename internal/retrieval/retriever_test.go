package retrieval

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	return s.vector, s.err
}

func testChunks() []Chunk {
	return []Chunk{
		{
			ID:      "companies-2020-015-0",
			Source:  "adgm_companies_regulations_2020",
			Title:   "ADGM Companies Regulations 2020",
			Locator: "Article 15",
			Text:    "The articles of association must state that disputes are subject to the jurisdiction of the ADGM Courts.",
			Vector:  []float32{1, 0, 0},
		},
		{
			ID:      "companies-2020-021-0",
			Source:  "adgm_companies_regulations_2020",
			Title:   "ADGM Companies Regulations 2020",
			Locator: "Article 21",
			Text:    "Every company must maintain a register of members at its registered office.",
			Vector:  []float32{0, 1, 0},
		},
		{
			ID:      "employment-2019-004-0",
			Source:  "adgm_employment_regulations_2019",
			Title:   "ADGM Employment Regulations 2019",
			Locator: "Section 4",
			Text:    "An employer shall provide each employee with a written contract of employment.",
			Vector:  []float32{0, 0, 1},
		},
	}
}

func TestIndexSearchRanksByCosine(t *testing.T) {
	idx := NewIndex(testChunks())

	matches, err := idx.Search(context.Background(), []float32{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Chunk.ID != "companies-2020-015-0" {
		t.Errorf("expected jurisdiction chunk first, got %s", matches[0].Chunk.ID)
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("expected descending scores, got %f then %f", matches[0].Score, matches[1].Score)
	}
}

func TestIndexSearchDeterministicTies(t *testing.T) {
	chunks := []Chunk{
		{ID: "b", Text: "second", Vector: []float32{1, 0}},
		{ID: "a", Text: "first", Vector: []float32{1, 0}},
	}
	idx := NewIndex(chunks)

	for i := 0; i < 5; i++ {
		matches, err := idx.Search(context.Background(), []float32{1, 0}, 2)
		if err != nil {
			t.Fatalf("Search returned error: %v", err)
		}
		if matches[0].Chunk.ID != "a" || matches[1].Chunk.ID != "b" {
			t.Fatalf("tie-break not deterministic: got %s, %s", matches[0].Chunk.ID, matches[1].Chunk.ID)
		}
	}
}

func TestIndexSearchEmptyIndex(t *testing.T) {
	idx := NewIndex(nil)

	matches, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches from empty index, got %d", len(matches))
	}
}

func TestIndexSearchSkipsMismatchedDimensions(t *testing.T) {
	chunks := []Chunk{
		{ID: "good", Vector: []float32{1, 0}},
		{ID: "bad", Vector: []float32{1, 0, 0}},
	}
	idx := NewIndex(chunks)

	matches, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(matches) != 1 || matches[0].Chunk.ID != "good" {
		t.Fatalf("expected only the dimension-matched chunk, got %+v", matches)
	}
}

func TestRetrieveFormatsCitations(t *testing.T) {
	idx := NewIndex(testChunks())
	retriever := NewRetriever(idx, &stubEmbedder{vector: []float32{1, 0, 0}}, nil)

	citations, err := retriever.Retrieve(context.Background(), "jurisdiction clause governing law", 1)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	if citations[0].Source != "ADGM Companies Regulations 2020, Article 15" {
		t.Errorf("unexpected citation source: %q", citations[0].Source)
	}
	if citations[0].Excerpt == "" {
		t.Error("expected non-empty excerpt")
	}
	if citations[0].Score <= 0 {
		t.Errorf("expected positive score, got %f", citations[0].Score)
	}
}

func TestRetrieveEmbedderFailureIsUnavailable(t *testing.T) {
	idx := NewIndex(testChunks())
	retriever := NewRetriever(idx, &stubEmbedder{err: errors.New("connection refused")}, nil)

	citations, err := retriever.Retrieve(context.Background(), "some query", 3)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(citations) != 0 {
		t.Errorf("expected no citations on failure, got %d", len(citations))
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	idx := NewIndex(testChunks())
	retriever := NewRetriever(idx, &stubEmbedder{vector: []float32{1, 0, 0}}, nil)

	citations, err := retriever.Retrieve(context.Background(), "", 3)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(citations) != 0 {
		t.Errorf("expected no citations for empty query, got %d", len(citations))
	}
}

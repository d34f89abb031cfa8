package retrieval

import (
	"context"
	"math"
	"sort"
)

// Chunk is one entry of the embedding index: a slice of a regulatory
// source plus its vector and citation metadata.
type Chunk struct {
	ID      string
	Source  string
	Title   string
	Locator string
	Text    string
	Vector  []float32
}

// Match pairs a chunk with its similarity score for one query.
type Match struct {
	Chunk Chunk
	Score float64
}

// Searcher is the vector-search primitive. The default implementation is
// the in-memory Index; a Milvus-backed one lives in internal/vector/milvus.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// Index is a flat in-memory cosine index. It is loaded once at startup
// from SQLite and never mutated afterwards, so concurrent readers need no
// locking and identical queries always rank identically.
type Index struct {
	chunks []Chunk
}

// NewIndex copies chunks and unit-normalizes their vectors so that a dot
// product is the cosine similarity.
func NewIndex(chunks []Chunk) *Index {
	normalized := make([]Chunk, len(chunks))
	for i, chunk := range chunks {
		chunk.Vector = normalize(chunk.Vector)
		normalized[i] = chunk
	}
	return &Index{chunks: normalized}
}

func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Search returns the topK most similar chunks, best first. Exact score
// ties are broken by chunk ID so the ranking is fully deterministic.
func (idx *Index) Search(_ context.Context, vector []float32, topK int) ([]Match, error) {
	if len(idx.chunks) == 0 || len(vector) == 0 || topK <= 0 {
		return []Match{}, nil
	}

	query := normalize(vector)

	matches := make([]Match, 0, len(idx.chunks))
	for _, chunk := range idx.chunks {
		if len(chunk.Vector) != len(query) {
			continue
		}
		matches = append(matches, Match{Chunk: chunk, Score: dot(query, chunk.Vector)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Chunk.ID < matches[j].Chunk.ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

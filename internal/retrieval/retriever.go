package retrieval

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/metrics"
	"github.com/adgm-agent/backend/internal/storage/models"
	"github.com/adgm-agent/backend/pkg/logger"
	"github.com/adgm-agent/backend/pkg/utils"
)

// ErrUnavailable marks degraded retrieval: missing index or unreachable
// embedding service. Callers treat it as "no citation available".
var ErrUnavailable = errors.New("retrieval unavailable")

const embeddingCacheTTL = 24 * time.Hour

// Citation is a retrieved excerpt supporting an issue finding. Source and
// Excerpt come straight from the index; the system never fabricates them.
type Citation struct {
	Source  string  `json:"citation"`
	Excerpt string  `json:"excerpt"`
	Score   float64 `json:"score"`
}

// Embedder produces a vector for arbitrary text. It must be backed by the
// same model used to build the index.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache is an optional read-through cache for query embeddings.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error
}

// Retriever is a pure search primitive: embed the query, rank chunks,
// return citations. Acceptance policy (whether a citation is good enough
// to attach to an issue) belongs to the caller.
type Retriever struct {
	searcher Searcher
	embedder Embedder
	cache    EmbeddingCache
}

// NewRetriever wires a retriever. cache may be nil.
func NewRetriever(searcher Searcher, embedder Embedder, cache EmbeddingCache) *Retriever {
	return &Retriever{
		searcher: searcher,
		embedder: embedder,
		cache:    cache,
	}
}

// Retrieve returns up to topK citations, best score first. An empty result
// is a valid outcome (empty index, no embeddings); a wrapped ErrUnavailable
// is returned when the embedding service or backend failed so callers can
// log the degradation.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Citation, error) {
	if query == "" || topK <= 0 {
		return []Citation{}, nil
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return []Citation{}, errors.Join(ErrUnavailable, err)
	}

	matches, err := r.searcher.Search(ctx, vector, topK)
	if err != nil {
		return []Citation{}, errors.Join(ErrUnavailable, err)
	}

	citations := make([]Citation, 0, len(matches))
	for _, match := range matches {
		citations = append(citations, Citation{
			Source:  formatSource(match.Chunk),
			Excerpt: match.Chunk.Text,
			Score:   match.Score,
		})
	}

	metrics.RetrievalResultsCount.Observe(float64(len(citations)))
	logger.Debug("Retrieval completed",
		zap.Int("top_k", topK),
		zap.Int("results", len(citations)),
	)

	return citations, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.cache == nil {
		return r.generateEmbedding(ctx, query)
	}

	hash := utils.HashString(query)
	if cached, ok, err := r.cache.GetEmbedding(ctx, hash); err == nil && ok {
		metrics.CacheHits.WithLabelValues("embedding").Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("embedding").Inc()

	vector, err := r.generateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetEmbedding(ctx, hash, vector, embeddingCacheTTL); err != nil {
		logger.Warn("Failed to cache embedding", zap.Error(err))
	}

	return vector, nil
}

func (r *Retriever) generateEmbedding(ctx context.Context, query string) ([]float32, error) {
	vector, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		metrics.EmbeddingCalls.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.EmbeddingCalls.WithLabelValues("success").Inc()
	return vector, nil
}

// formatSource builds the human-readable reference string, e.g.
// "ADGM Companies Regulations 2020, Article 15".
func formatSource(chunk Chunk) string {
	source := chunk.Title
	if source == "" {
		source = chunk.Source
	}
	if chunk.Locator != "" {
		return source + ", " + chunk.Locator
	}
	return source
}

// ChunksFromModels converts stored rows into index chunks.
func ChunksFromModels(rows []models.RegulationChunk) []Chunk {
	chunks := make([]Chunk, len(rows))
	for i, row := range rows {
		chunks[i] = Chunk{
			ID:      row.ID,
			Source:  row.Source,
			Title:   row.Title,
			Locator: row.Locator,
			Text:    row.Text,
			Vector:  row.Embedding,
		}
	}
	return chunks
}

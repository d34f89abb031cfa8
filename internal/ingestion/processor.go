package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/llm"
	"github.com/adgm-agent/backend/internal/storage/models"
	"github.com/adgm-agent/backend/internal/storage/sqlite"
	"github.com/adgm-agent/backend/pkg/logger"
	"github.com/adgm-agent/backend/pkg/utils"
)

// VectorStore receives embedded chunks in addition to SQLite. Optional;
// nil when only the in-memory index backend is configured.
type VectorStore interface {
	Insert(ctx context.Context, chunks []models.RegulationChunk) error
}

// Source is one regulatory document to ingest.
type Source struct {
	Name    string
	Title   string
	Content string
	IsHTML  bool
}

type Processor struct {
	db           *sqlite.Client
	vectorDB     VectorStore
	llmClient    *llm.Client
	chunkSize    int
	chunkOverlap int
}

func NewProcessor(db *sqlite.Client, vectorDB VectorStore, llmClient *llm.Client, chunkSize, chunkOverlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 100
	}
	return &Processor{
		db:           db,
		vectorDB:     vectorDB,
		llmClient:    llmClient,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ProcessSource cleans, chunks, embeds and stores one regulatory source.
func (p *Processor) ProcessSource(ctx context.Context, source Source) (int, error) {
	logger.Info("Processing source", zap.String("source", source.Name))

	text := source.Content
	if source.IsHTML {
		text = cleanHTML(text)
		if source.Title == "" {
			source.Title = extractTitle(source.Content)
		}
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("no content extracted from %s", source.Name)
	}
	if source.Title == "" {
		source.Title = source.Name
	}

	sections := splitSections(text)
	pieces := p.chunkSections(sections)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("no chunks produced from %s", source.Name)
	}
	logger.Info("Source chunked", zap.String("source", source.Name), zap.Int("chunks", len(pieces)))

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.text
	}

	embeddings, err := p.llmClient.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(pieces) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(pieces))
	}

	sourceID := utils.HashString(source.Name)[:12]
	now := time.Now()

	chunks := make([]models.RegulationChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = models.RegulationChunk{
			ID:         fmt.Sprintf("%s_%d", sourceID, i),
			Source:     source.Name,
			Title:      source.Title,
			Locator:    piece.locator,
			ChunkIndex: i,
			Text:       piece.text,
			Embedding:  embeddings[i],
			CreatedAt:  now,
		}
	}

	if err := p.db.InsertChunks(chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	if p.vectorDB != nil {
		if err := p.vectorDB.Insert(ctx, chunks); err != nil {
			return 0, fmt.Errorf("failed to insert into vector DB: %w", err)
		}
	}

	logger.Info("Source processed",
		zap.String("source", source.Name),
		zap.Int("chunks", len(chunks)),
	)

	return len(chunks), nil
}

var whitespaceRE = regexp.MustCompile(`[ \t]+`)

func cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	// Preserve block boundaries as newlines so section headings survive.
	var b strings.Builder
	doc.Find("h1, h2, h3, h4, p, li, td").Each(func(_ int, s *goquery.Selection) {
		line := strings.TrimSpace(s.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	})

	text := b.String()
	if text == "" {
		text = doc.Find("body").Text()
	}

	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	title := doc.Find("title").First().Text()
	if title == "" {
		title = doc.Find("h1").First().Text()
	}

	return strings.TrimSpace(title)
}

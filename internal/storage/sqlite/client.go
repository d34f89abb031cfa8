package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/storage/models"
	"github.com/adgm-agent/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS regulation_chunks (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT,
		locator TEXT,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_source ON regulation_chunks(source);

	CREATE TABLE IF NOT EXISTS analysis_reports (
		id TEXT PRIMARY KEY,
		process TEXT,
		documents_uploaded INTEGER NOT NULL,
		required_documents INTEGER NOT NULL,
		issue_count INTEGER NOT NULL,
		report TEXT NOT NULL,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON analysis_reports(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// InsertChunks writes a batch of regulation chunks in one transaction.
// Embeddings are stored as JSON arrays; the in-memory index decodes them
// once at startup.
func (c *Client) InsertChunks(chunks []models.RegulationChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO regulation_chunks (id, source, title, locator, chunk_index, text, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding for %s: %w", chunk.ID, err)
		}

		_, err = stmt.Exec(
			chunk.ID,
			chunk.Source,
			chunk.Title,
			chunk.Locator,
			chunk.ChunkIndex,
			chunk.Text,
			string(embeddingJSON),
			chunk.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}

	logger.Info("Regulation chunks inserted", zap.Int("count", len(chunks)))
	return nil
}

// LoadChunks reads the whole embedding index. Chunk order is stable
// (source, chunk_index) so retrieval results are reproducible across
// restarts.
func (c *Client) LoadChunks() ([]models.RegulationChunk, error) {
	rows, err := c.db.Query(`
		SELECT id, source, title, locator, chunk_index, text, embedding, created_at
		FROM regulation_chunks
		ORDER BY source, chunk_index
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.RegulationChunk
	for rows.Next() {
		var chunk models.RegulationChunk
		var embeddingJSON string
		var createdAt int64

		err := rows.Scan(
			&chunk.ID,
			&chunk.Source,
			&chunk.Title,
			&chunk.Locator,
			&chunk.ChunkIndex,
			&chunk.Text,
			&embeddingJSON,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}

		if err := json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %s: %w", chunk.ID, err)
		}
		chunk.CreatedAt = time.Unix(createdAt, 0)

		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk rows: %w", err)
	}

	return chunks, nil
}

func (c *Client) CountChunks() (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM regulation_chunks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

func (c *Client) InsertAnalysis(record *models.AnalysisRecord) error {
	_, err := c.db.Exec(`
		INSERT INTO analysis_reports (id, process, documents_uploaded, required_documents, issue_count, report, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.Process,
		record.DocumentsUploaded,
		record.RequiredDocuments,
		record.IssueCount,
		record.ReportJSON,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}

	logger.Info("Analysis recorded",
		zap.String("analysis_id", record.ID),
		zap.String("process", record.Process),
		zap.Int("issues", record.IssueCount),
	)
	return nil
}

func (c *Client) ListAnalyses(limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := c.db.Query(`
		SELECT id, process, documents_uploaded, required_documents, issue_count, report, latency_ms, created_at
		FROM analysis_reports
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var r models.AnalysisRecord
		var createdAt int64

		err := rows.Scan(
			&r.ID,
			&r.Process,
			&r.DocumentsUploaded,
			&r.RequiredDocuments,
			&r.IssueCount,
			&r.ReportJSON,
			&r.LatencyMS,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

package models

import "time"

// RegulationChunk is one embedded slice of a regulatory source document.
// Built offline by the index builder; read-only at query time.
type RegulationChunk struct {
	ID         string
	Source     string
	Title      string
	Locator    string
	ChunkIndex int
	Text       string
	Embedding  []float32
	CreatedAt  time.Time
}

// AnalysisRecord is one persisted analysis run with its serialized report.
type AnalysisRecord struct {
	ID                string
	Process           string
	DocumentsUploaded int
	RequiredDocuments int
	IssueCount        int
	ReportJSON        string
	LatencyMS         int
	CreatedAt         time.Time
}

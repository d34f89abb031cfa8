package analysis

import (
	"encoding/json"

	"github.com/adgm-agent/backend/internal/detector"
	"github.com/adgm-agent/backend/internal/redflag"
)

// Document is one extracted text body under analysis. Extraction happens
// upstream; by the time a Document reaches the engine it is plain text.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Citation is the supporting excerpt attached to an issue. Always sourced
// from the retrieval index, never fabricated.
type Citation struct {
	Citation string `json:"citation"`
	Excerpt  string `json:"excerpt"`
}

// Issue is a finding in its reportable form: a rule finding plus the
// owning document and any citation.
type Issue struct {
	Document   string           `json:"document"`
	Section    string           `json:"section"`
	Issue      string           `json:"issue"`
	Severity   redflag.Severity `json:"severity"`
	Suggestion string           `json:"suggestion"`
	Citation   *Citation        `json:"citation"`
}

// DocumentRecord is the per-document slice of a report. Every input
// document gets exactly one record, whatever the analysis outcome.
type DocumentRecord struct {
	Document      string               `json:"document"`
	DetectedTypes []detector.TypeMatch `json:"detected_types"`
	DocType       string               `json:"doc_type"`
	Issues        []Issue              `json:"issues"`
	Note          string               `json:"note,omitempty"`
}

// NullableString marshals the empty string as JSON null. The report's
// process field is null, not "", when no checklist matched.
type NullableString string

func (s NullableString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// Report is the batch-level result. Key names are a stable contract with
// downstream consumers and must not change.
type Report struct {
	Process           NullableString       `json:"process"`
	DocumentsUploaded int                  `json:"documents_uploaded"`
	RequiredDocuments int                  `json:"required_documents"`
	MissingDocuments  []string             `json:"missing_document"`
	IssuesFound       []Issue              `json:"issues_found"`
	Documents         []DocumentRecord     `json:"documents"`
	SeveritySummary   redflag.ScoreSummary `json:"severity_summary"`
}

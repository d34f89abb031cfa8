package analysis

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/detector"
	"github.com/adgm-agent/backend/internal/llm"
	"github.com/adgm-agent/backend/internal/metrics"
	"github.com/adgm-agent/backend/internal/process"
	"github.com/adgm-agent/backend/internal/redflag"
	"github.com/adgm-agent/backend/internal/registry"
	"github.com/adgm-agent/backend/internal/retrieval"
	"github.com/adgm-agent/backend/pkg/logger"
	"github.com/adgm-agent/backend/pkg/utils"
)

const citationCacheTTL = 24 * time.Hour

// Retriever is the citation lookup the engine consults per issue. nil
// disables citation enrichment entirely.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.Citation, error)
}

// Summarizer optionally compresses retrieved passages into a one-line
// citation via the chat model. nil keeps raw excerpts.
type Summarizer interface {
	SummarizeCitation(ctx context.Context, query string, passages []string) (*llm.CitationSummary, error)
}

// CitationCache is an optional read-through for resolved citations,
// keyed by query hash. Entries are invalidated when the index is
// rebuilt, so a hit is always consistent with the current index.
type CitationCache interface {
	GetCitation(ctx context.Context, queryHash string, citation interface{}) (bool, error)
	SetCitation(ctx context.Context, queryHash string, citation interface{}, ttl time.Duration) error
}

type Config struct {
	// Concurrency bounds the worker pool. Documents are independent, so
	// any value >= 1 yields the same report.
	Concurrency int
	// TopK passed to the retriever per issue query.
	TopK int
	// MinCitationScore is the acceptance threshold for attaching the
	// top-1 retrieval result to an issue.
	MinCitationScore float64
	// MinIssueQuery is the minimum issue-text length worth a retrieval
	// round trip.
	MinIssueQuery int
}

// Engine runs the full pipeline over a batch: type detection, red flag
// checks and citation enrichment per document, then process inference and
// completeness checking across the batch.
type Engine struct {
	detector   *detector.Detector
	inference  *process.Inferencer
	redflags   *redflag.Engine
	retriever  Retriever
	summarizer Summarizer
	citations  CitationCache
	cfg        Config
}

// NewEngine assumes reg has already passed Validate; a malformed registry
// is fatal at startup, never handed to the engine. retriever, summarizer
// and citations may be nil.
func NewEngine(reg *registry.Registry, retriever Retriever, summarizer Summarizer, citations CitationCache, cfg Config) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Engine{
		detector:   detector.New(reg),
		inference:  process.New(reg),
		redflags:   redflag.NewEngine(),
		retriever:  retriever,
		summarizer: summarizer,
		citations:  citations,
		cfg:        cfg,
	}
}

// Analyze processes a batch and builds the report. Documents run on a
// bounded worker pool; cancellation is observed between documents, and a
// cancelled run returns the report for the documents already analyzed
// together with ctx.Err().
func (e *Engine) Analyze(ctx context.Context, docs []Document) (*Report, error) {
	return e.AnalyzeWithProgress(ctx, docs, nil)
}

// AnalyzeWithProgress is Analyze with a per-document callback, invoked
// from worker goroutines as each record completes. onDocument must be
// safe for concurrent use; nil disables progress reporting.
func (e *Engine) AnalyzeWithProgress(ctx context.Context, docs []Document, onDocument func(DocumentRecord)) (*Report, error) {
	records := make([]*DocumentRecord, len(docs))

	workers := e.cfg.Concurrency
	if workers > len(docs) {
		workers = len(docs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec := e.analyzeDocument(ctx, docs[i])
				records[i] = rec
				if onDocument != nil {
					onDocument(*rec)
				}
			}
		}()
	}

dispatch:
	for i := range docs {
		if ctx.Err() != nil {
			break dispatch
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	report := e.buildReport(len(docs), records)

	if err := ctx.Err(); err != nil {
		logger.Warn("Analysis cancelled, returning partial report",
			zap.Int("analyzed", len(report.Documents)),
			zap.Int("submitted", len(docs)),
		)
		return report, err
	}

	logger.Info("Analysis completed",
		zap.String("process", string(report.Process)),
		zap.Int("documents", report.DocumentsUploaded),
		zap.Int("issues", len(report.IssuesFound)),
	)
	return report, nil
}

// analyzeDocument is the per-document pipeline. Panics are isolated into
// a degraded record so one corrupt document cannot abort its siblings.
func (e *Engine) analyzeDocument(ctx context.Context, doc Document) (rec *DocumentRecord) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Document analysis failed",
				zap.String("document", doc.ID),
				zap.Any("panic", r),
			)
			rec = &DocumentRecord{
				Document:      doc.ID,
				DetectedTypes: []detector.TypeMatch{},
				Issues:        []Issue{},
				Note:          "analysis failed; document skipped",
			}
		}
	}()

	matches := e.detector.Detect(doc.Text)

	docType := ""
	if len(matches) > 0 {
		docType = matches[0].Type
		metrics.DetectionConfidence.Observe(matches[0].Confidence)
	}

	findings := e.redflags.RunChecks(doc.Text, docType)

	label := docType
	if label == "" {
		label = e.detector.FallbackLabel(doc.Text)
	}

	issues := make([]Issue, 0, len(findings))
	for _, finding := range findings {
		issues = append(issues, Issue{
			Document:   doc.ID,
			Section:    finding.Section,
			Issue:      finding.Issue,
			Severity:   finding.Severity,
			Suggestion: finding.Suggestion,
			Citation:   e.cite(ctx, finding, docType),
		})
	}

	return &DocumentRecord{
		Document:      doc.ID,
		DetectedTypes: matches,
		DocType:       label,
		Issues:        issues,
	}
}

// cite derives a retrieval query from a finding and attaches the top
// result when it clears the acceptance threshold. Retrieval failures
// degrade to a null citation.
func (e *Engine) cite(ctx context.Context, finding redflag.Issue, docType string) *Citation {
	if e.retriever == nil || len(finding.Issue) < e.cfg.MinIssueQuery {
		return nil
	}

	query := finding.Issue
	if docType != "" {
		query += " " + docType
	}

	queryHash := utils.HashString(query)
	if e.citations != nil {
		var cached Citation
		if ok, err := e.citations.GetCitation(ctx, queryHash, &cached); err == nil && ok {
			metrics.CacheHits.WithLabelValues("citation").Inc()
			metrics.CitationsAttached.WithLabelValues("attached").Inc()
			return &cached
		}
		metrics.CacheMisses.WithLabelValues("citation").Inc()
	}

	citations, err := e.retriever.Retrieve(ctx, query, e.cfg.TopK)
	if err != nil {
		metrics.CitationsAttached.WithLabelValues("unavailable").Inc()
		logger.Warn("Citation retrieval degraded",
			zap.String("rule", finding.Issue),
			zap.Error(err),
		)
		return nil
	}
	if len(citations) == 0 || citations[0].Score < e.cfg.MinCitationScore {
		metrics.CitationsAttached.WithLabelValues("below_threshold").Inc()
		return nil
	}
	metrics.CitationsAttached.WithLabelValues("attached").Inc()

	result := &Citation{Citation: citations[0].Source, Excerpt: citations[0].Excerpt}
	if e.summarizer != nil {
		passages := make([]string, 0, len(citations))
		for _, c := range citations {
			passages = append(passages, c.Excerpt)
		}
		if summary, err := e.summarizer.SummarizeCitation(ctx, query, passages); err == nil && summary.Citation != "" {
			result = &Citation{Citation: summary.Citation, Excerpt: summary.Excerpt}
		}
	}

	if e.citations != nil {
		if err := e.citations.SetCitation(ctx, queryHash, result, citationCacheTTL); err != nil {
			logger.Debug("Failed to cache citation", zap.Error(err))
		}
	}

	return result
}

// buildReport assembles batch-level results from the per-document records
// in input order. Skipped slots (cancellation) are dropped; completed
// records always survive.
func (e *Engine) buildReport(submitted int, records []*DocumentRecord) *Report {
	report := &Report{
		DocumentsUploaded: submitted,
		MissingDocuments:  []string{},
		IssuesFound:       []Issue{},
		Documents:         []DocumentRecord{},
	}

	var detectedTypes []string
	var flat []redflag.Issue

	for _, rec := range records {
		if rec == nil {
			continue
		}
		report.Documents = append(report.Documents, *rec)
		if len(rec.DetectedTypes) > 0 {
			detectedTypes = append(detectedTypes, rec.DetectedTypes[0].Type)
		}
		for _, issue := range rec.Issues {
			report.IssuesFound = append(report.IssuesFound, issue)
			flat = append(flat, redflag.Issue{Severity: issue.Severity})
		}
	}

	processName := e.inference.InferProcess(detectedTypes)
	report.Process = NullableString(processName)
	report.RequiredDocuments = e.inference.RequiredCount(processName)
	if missing := e.inference.Missing(processName, detectedTypes); missing != nil {
		report.MissingDocuments = missing
	}
	report.SeveritySummary = redflag.Score(flat)

	return report
}

package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/analysis"
	"github.com/adgm-agent/backend/internal/metrics"
	"github.com/adgm-agent/backend/internal/storage/models"
	"github.com/adgm-agent/backend/internal/storage/sqlite"
	"github.com/adgm-agent/backend/pkg/logger"
)

type AnalysisHandler struct {
	engine *analysis.Engine
	db     *sqlite.Client
}

func NewAnalysisHandler(engine *analysis.Engine, db *sqlite.Client) *AnalysisHandler {
	return &AnalysisHandler{
		engine: engine,
		db:     db,
	}
}

// HandleAnalyze runs the pipeline over an uploaded batch and returns the
// report. The report is also persisted for the history endpoint; a storage
// failure is logged but never fails the response.
func (h *AnalysisHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req struct {
		Documents []analysis.Document `json:"documents"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Documents) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one document is required",
		})
	}

	for i := range req.Documents {
		if req.Documents[i].ID == "" {
			req.Documents[i].ID = uuid.New().String()
		}
	}

	start := time.Now()
	report, err := h.engine.Analyze(c.Context(), req.Documents)
	latency := time.Since(start)

	if err != nil {
		metrics.AnalysisTotal.WithLabelValues("cancelled").Inc()
		logger.Warn("Analysis interrupted", zap.Error(err))
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error":  "Analysis cancelled",
			"report": report,
		})
	}

	metrics.AnalysisTotal.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.WithLabelValues("success").Observe(latency.Seconds())
	metrics.DocumentsAnalyzed.Add(float64(len(req.Documents)))
	for _, issue := range report.IssuesFound {
		metrics.IssuesFound.WithLabelValues(string(issue.Severity)).Inc()
	}

	h.persist(report, latency)

	return c.JSON(report)
}

// HandleListReports returns recent analysis runs, newest first.
func (h *AnalysisHandler) HandleListReports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	records, err := h.db.ListAnalyses(limit)
	if err != nil {
		logger.Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list reports",
		})
	}

	items := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		items = append(items, fiber.Map{
			"id":                 r.ID,
			"process":            r.Process,
			"documents_uploaded": r.DocumentsUploaded,
			"required_documents": r.RequiredDocuments,
			"issue_count":        r.IssueCount,
			"latency_ms":         r.LatencyMS,
			"created_at":         r.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{"reports": items})
}

func (h *AnalysisHandler) persist(report *analysis.Report, latency time.Duration) {
	data, err := json.Marshal(report)
	if err != nil {
		logger.Error("Failed to serialize report", zap.Error(err))
		return
	}

	record := &models.AnalysisRecord{
		ID:                uuid.New().String(),
		Process:           string(report.Process),
		DocumentsUploaded: report.DocumentsUploaded,
		RequiredDocuments: report.RequiredDocuments,
		IssueCount:        len(report.IssuesFound),
		ReportJSON:        string(data),
		LatencyMS:         int(latency.Milliseconds()),
		CreatedAt:         time.Now(),
	}

	if err := h.db.InsertAnalysis(record); err != nil {
		logger.Error("Failed to persist report", zap.Error(err))
	}
}

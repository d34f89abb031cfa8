package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/retrieval"
	"github.com/adgm-agent/backend/pkg/logger"
)

type RetrievalHandler struct {
	retriever *retrieval.Retriever
	topK      int
}

func NewRetrievalHandler(retriever *retrieval.Retriever, topK int) *RetrievalHandler {
	if topK <= 0 {
		topK = 3
	}
	return &RetrievalHandler{
		retriever: retriever,
		topK:      topK,
	}
}

// HandleCitations exposes the retriever directly: given a free-text query
// it returns the best-matching regulatory excerpts with scores.
func (h *RetrievalHandler) HandleCitations(c *fiber.Ctx) error {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	topK := req.TopK
	if topK <= 0 || topK > 10 {
		topK = h.topK
	}

	citations, err := h.retriever.Retrieve(c.Context(), req.Query, topK)
	if err != nil {
		if errors.Is(err, retrieval.ErrUnavailable) {
			logger.Warn("Retrieval unavailable", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Citation index unavailable",
			})
		}
		logger.Error("Retrieval failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve citations",
		})
	}

	return c.JSON(fiber.Map{
		"query":     req.Query,
		"citations": citations,
	})
}

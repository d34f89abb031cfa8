package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var scriptInjectionPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

type Config struct {
	MaxQueryLength  int
	MaxDocumentSize int
	MaxBatchSize    int
	Logger          *zap.Logger
}

// Middleware validates request bodies for the analysis endpoints before
// they reach the handlers. Document text is legal prose, so only structural
// limits apply to it; free-text queries additionally get injection checks.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxQueryLength == 0 {
		cfg.MaxQueryLength = 2000
	}
	if cfg.MaxDocumentSize == 0 {
		cfg.MaxDocumentSize = 5 * 1024 * 1024
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 50
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost {
			contentType := c.Get("Content-Type")
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		path := c.Path()

		if strings.HasSuffix(path, "/analyze") && c.Method() == fiber.MethodPost {
			var req struct {
				Documents []struct {
					ID   string `json:"id"`
					Text string `json:"text"`
				} `json:"documents"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if len(req.Documents) == 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "At least one document is required",
				})
			}
			if len(req.Documents) > cfg.MaxBatchSize {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Batch exceeds maximum document count",
				})
			}
			for _, doc := range req.Documents {
				if len(doc.Text) > cfg.MaxDocumentSize {
					return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
						"error": "Document text exceeds maximum size",
					})
				}
			}
		}

		if strings.HasSuffix(path, "/citations") && c.Method() == fiber.MethodPost {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			query, ok := req["query"].(string)
			if !ok || strings.TrimSpace(query) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Query is required and must be a string",
				})
			}
			if len(query) > cfg.MaxQueryLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Query exceeds maximum length",
				})
			}
			if scriptInjectionPattern.MatchString(query) {
				cfg.Logger.Warn("Potential injection attempt",
					zap.String("ip", c.IP()),
					zap.String("path", path),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid query content",
				})
			}
		}

		return c.Next()
	}
}

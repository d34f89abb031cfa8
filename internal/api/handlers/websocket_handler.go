package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/analysis"
	"github.com/adgm-agent/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine *analysis.Engine
}

func NewWebSocketHandler(engine *analysis.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
	}
}

// HandleConnection serves one analysis session: the client sends a batch,
// the server streams per-document results followed by the full report.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type      string              `json:"type"`
			Documents []analysis.Document `json:"documents"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "analyze" {
			continue
		}
		if len(msg.Documents) == 0 {
			h.sendError(c, "At least one document is required")
			continue
		}

		if err := h.streamAnalysis(c, msg.Documents); err != nil {
			logger.Error("Failed to stream analysis", zap.Error(err))
			h.sendError(c, "Failed to analyze documents")
		}
	}
}

func (h *WebSocketHandler) streamAnalysis(c *websocket.Conn, docs []analysis.Document) error {
	ctx := context.Background()

	h.send(c, map[string]interface{}{
		"type":    "status",
		"content": fmt.Sprintf("Analyzing %d documents...", len(docs)),
	})

	// Documents finish on worker goroutines; the connection takes one
	// writer at a time.
	var mu sync.Mutex
	report, err := h.engine.AnalyzeWithProgress(ctx, docs, func(rec analysis.DocumentRecord) {
		mu.Lock()
		defer mu.Unlock()
		if err := h.send(c, map[string]interface{}{
			"type":     "document",
			"document": rec,
		}); err != nil {
			logger.Debug("WebSocket document write failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	return h.send(c, map[string]interface{}{
		"type":   "complete",
		"report": report,
	})
}

func (h *WebSocketHandler) send(c *websocket.Conn, msg map[string]interface{}) error {
	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	h.send(c, map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}

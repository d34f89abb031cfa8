package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/analysis"
	"github.com/adgm-agent/backend/internal/api/handlers"
	"github.com/adgm-agent/backend/internal/cache/redis"
	"github.com/adgm-agent/backend/internal/llm"
	"github.com/adgm-agent/backend/internal/metrics"
	"github.com/adgm-agent/backend/internal/middleware/ratelimit"
	"github.com/adgm-agent/backend/internal/middleware/security"
	"github.com/adgm-agent/backend/internal/middleware/validation"
	"github.com/adgm-agent/backend/internal/registry"
	"github.com/adgm-agent/backend/internal/retrieval"
	"github.com/adgm-agent/backend/internal/storage/sqlite"
	"github.com/adgm-agent/backend/internal/vector/milvus"
	"github.com/adgm-agent/backend/pkg/config"
	appLogger "github.com/adgm-agent/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting ADGM Agent API Server")

	// A malformed pattern registry must stop the process before any
	// request is analyzed with partial rules.
	reg := registry.Default()
	if err := reg.Validate(); err != nil {
		appLogger.Fatal("Pattern registry validation failed", zap.Error(err))
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		TimeoutSec:     cfg.LLM.TimeoutSec,
		MaxRetries:     cfg.LLM.MaxRetries,
	})

	searcher, err := buildSearcher(cfg, sqliteClient)
	if err != nil {
		appLogger.Fatal("Failed to build search backend", zap.Error(err))
	}

	var embeddingCache retrieval.EmbeddingCache
	var citationCache analysis.CitationCache
	if cache != nil {
		embeddingCache = cache
		citationCache = cache
	}
	retriever := retrieval.NewRetriever(searcher, llmClient, embeddingCache)

	var summarizer analysis.Summarizer
	if cfg.Retrieval.SummarizeCitations {
		summarizer = llmClient
	}

	engine := analysis.NewEngine(reg, retriever, summarizer, citationCache, analysis.Config{
		Concurrency:      cfg.Analysis.Concurrency,
		TopK:             cfg.Retrieval.TopK,
		MinCitationScore: cfg.Retrieval.MinCitationScore,
		MinIssueQuery:    cfg.Analysis.MinIssueQuery,
	})

	metrics.Init()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Client-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{Logger: appLogger.GetLogger()})
	defer limiter.Stop()
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxDocumentSize: cfg.Server.BodyLimit,
		Logger:          appLogger.GetLogger(),
	}))

	analysisHandler := handlers.NewAnalysisHandler(engine, sqliteClient)
	retrievalHandler := handlers.NewRetrievalHandler(retriever, cfg.Retrieval.TopK)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/analyze", analysisHandler.HandleAnalyze)
	api.Get("/reports", analysisHandler.HandleListReports)
	api.Post("/citations", retrievalHandler.HandleCitations)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/analyze", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// buildSearcher loads the in-memory index from SQLite, or connects to
// Milvus when configured.
func buildSearcher(cfg *config.Config, db *sqlite.Client) (retrieval.Searcher, error) {
	if cfg.Retrieval.Backend == "milvus" {
		client, err := milvus.NewClient(cfg.Milvus.Endpoint, cfg.Milvus.CollectionName, cfg.Milvus.VectorDim)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	rows, err := db.LoadChunks()
	if err != nil {
		return nil, err
	}

	index := retrieval.NewIndex(retrieval.ChunksFromModels(rows))
	metrics.IndexChunksTotal.Set(float64(index.Len()))
	if index.Len() == 0 {
		appLogger.Warn("Embedding index is empty; citations will be unavailable until build-index runs")
	}

	return index, nil
}

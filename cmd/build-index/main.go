package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/adgm-agent/backend/internal/cache/redis"
	"github.com/adgm-agent/backend/internal/ingestion"
	"github.com/adgm-agent/backend/internal/llm"
	"github.com/adgm-agent/backend/internal/storage/sqlite"
	"github.com/adgm-agent/backend/internal/vector/milvus"
	"github.com/adgm-agent/backend/pkg/config"
	appLogger "github.com/adgm-agent/backend/pkg/logger"
)

// build-index walks a corpus directory of regulatory sources (.txt and
// .html), chunks and embeds them, and writes the embedding index consumed
// by the API server.
func main() {
	corpusDir := flag.String("corpus", "./corpus", "directory of regulatory source files")
	flag.Parse()

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

	appLogger.Info("Building embedding index", zap.String("corpus", *corpusDir))

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	ctx := context.Background()

	var vectorStore ingestion.VectorStore
	if cfg.Retrieval.Backend == "milvus" {
		milvusClient, err := milvus.NewClient(cfg.Milvus.Endpoint, cfg.Milvus.CollectionName, cfg.Milvus.VectorDim)
		if err != nil {
			appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
		}
		defer milvusClient.Close()

		if err := milvusClient.CreateCollection(ctx); err != nil {
			appLogger.Fatal("Failed to create collection", zap.Error(err))
		}
		vectorStore = milvusClient
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		TimeoutSec:     cfg.LLM.TimeoutSec,
		MaxRetries:     cfg.LLM.MaxRetries,
	})

	processor := ingestion.NewProcessor(
		sqliteClient,
		vectorStore,
		llmClient,
		cfg.Ingestion.ChunkSize,
		cfg.Ingestion.ChunkOverlap,
	)

	sources, chunks := 0, 0
	err = filepath.WalkDir(*corpusDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".html" {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), ext)
		n, err := processor.ProcessSource(ctx, ingestion.Source{
			Name:    name,
			Content: string(content),
			IsHTML:  ext == ".html",
		})
		if err != nil {
			appLogger.Error("Failed to process source", zap.String("path", path), zap.Error(err))
			return nil
		}

		sources++
		chunks += n
		return nil
	})
	if err != nil {
		appLogger.Fatal("Corpus walk failed", zap.Error(err))
	}

	// Cached citations reference the old index; drop them.
	if cfg.Redis.Enabled {
		if cache, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB); err == nil {
			if err := cache.InvalidateCitations(ctx); err != nil {
				appLogger.Warn("Failed to invalidate citation cache", zap.Error(err))
			}
			cache.Close()
		}
	}

	total, err := sqliteClient.CountChunks()
	if err != nil {
		appLogger.Fatal("Failed to count chunks", zap.Error(err))
	}

	appLogger.Info("Index build complete",
		zap.Int("sources", sources),
		zap.Int("chunks_added", chunks),
		zap.Int("chunks_total", total),
	)
}

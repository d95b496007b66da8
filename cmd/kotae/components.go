package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Components holds initialized services.
type Components struct {
	Config       *config.Config
	Logger       *zap.Logger
	Storage      *storage.SQLiteStorage
	Files        *storage.FileStore
	VectorIndex  *vector.Index
	Indexer      *indexer.Indexer
	Orchestrator *rag.Orchestrator
}

// Close releases the store and the embedder.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// setup loads the config and builds the logger and components. The chat model is only built
// when withChat is set, so commands that never answer questions need no LLM API key.
func setup(ctx context.Context, withChat bool) (*Components, error) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))

	c, err := initializeComponents(ctx, cfg, logger, withChat)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return c, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, withChat bool) (*Components, error) {
	c := &Components{Config: cfg, Logger: logger}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	files, err := storage.NewFileStore(cfg.Storage.UploadDir)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize upload directory: %w", err)
	}
	c.Files = files

	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	shards, err := vector.NewDiskStore(cfg.Storage.VectorStorePath)
	if err != nil {
		_ = embedder.Close()
		c.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	c.VectorIndex = vector.NewIndex(embedder, shards, vector.WithLogger(logger))
	logger.Info("vector index initialized",
		zap.String("path", shards.Dir()),
		zap.String("embedding_model", embedder.ModelID()))

	chunker, err := indexer.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Indexer = indexer.NewIndexer(store, files, c.VectorIndex, chunker, extract.NewExtractor(),
		indexer.WithLogger(logger),
		indexer.WithMaxFileSize(cfg.Server.MaxUploadSize))

	if withChat {
		model, err := llm.New(ctx, cfg.LLM, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize chat model: %w", err)
		}
		c.Orchestrator = rag.NewOrchestrator(store, store, c.VectorIndex, model,
			rag.WithLogger(logger),
			rag.WithTopK(cfg.RAG.TopK),
			rag.WithTitleTimeout(cfg.RAG.TitleTimeout()))
		logger.Info("chat model initialized", zap.String("model", model.Name()))
	}
	return c, nil
}

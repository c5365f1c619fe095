package main

import (
	"log/slog"
	"time"

	"github.com/pawsona/pawsona/internal/types"
	"github.com/pawsona/pawsona/pkg/config"
	"github.com/pawsona/pawsona/pkg/embed"
	"github.com/pawsona/pawsona/pkg/llm"
	"github.com/pawsona/pawsona/pkg/metrics"
	"github.com/pawsona/pawsona/pkg/rag"
	"github.com/pawsona/pawsona/pkg/store"
)

func openStore(cfg *config.Config) (types.VectorStore, error) {
	return store.Open(store.Options{
		Driver:    cfg.Store.Driver,
		Path:      cfg.Store.Path,
		URL:       cfg.Store.URL,
		TableName: cfg.Store.TableName,
		VectorDim: cfg.Embedding.Dimensions,
	})
}

func newEmbedder(cfg *config.Config) *embed.Embedder {
	return embed.New(embed.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
}

func newGateway(cfg *config.Config) *llm.Gateway {
	return llm.NewGateway(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		Referer:     cfg.LLM.Referer,
		Title:       cfg.LLM.Title,
	})
}

func newComposer(cfg *config.Config, st types.VectorStore, gen types.Generator, logger *slog.Logger, m *metrics.Metrics) *rag.Composer {
	return rag.NewComposer(newEmbedder(cfg), st, gen, rag.Options{
		TopK:          cfg.Retrieval.TopK,
		MinScore:      cfg.Retrieval.MinScore,
		HistoryWindow: cfg.Retrieval.HistoryWindow,
		Logger:        logger,
		Metrics:       m,
	})
}

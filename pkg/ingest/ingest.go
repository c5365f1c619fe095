// Package ingest rebuilds the knowledge corpus: curated entries from the
// knowledge JSON file plus optional guide pages fetched from the web,
// chunked, embedded batch-wise and bulk-loaded into the vector store in a
// single replace.
package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/internal/types"
)

// Fetcher pulls guide pages starting from a URL.
type Fetcher interface {
	Scrape(ctx context.Context, startURL string) ([]models.GuidePage, error)
}

type Config struct {
	KnowledgeFile string
	GuideURLs     []string
	BatchSize     int
	Logger        *slog.Logger

	// OnEmbedProgress is called after each embedded batch with the number
	// of documents done so far and the total.
	OnEmbedProgress func(done, total int)
}

// Stats summarizes one ingestion run.
type Stats struct {
	KnowledgeDocs int
	GuidePages    int
	GuideChunks   int
	Stored        int
}

type Pipeline struct {
	embedder types.Embedder
	store    types.VectorStore
	fetcher  Fetcher
	chunker  types.Chunker
	cfg      Config
	logger   *slog.Logger
}

// NewPipeline wires an ingestion run. fetcher and chunker may be nil when
// no guide URLs are configured.
func NewPipeline(embedder types.Embedder, store types.VectorStore, fetcher Fetcher, chunker types.Chunker, cfg Config) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		embedder: embedder,
		store:    store,
		fetcher:  fetcher,
		chunker:  chunker,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run collects all documents, embeds them and replaces the store contents.
// A guide URL that fails to fetch is logged and skipped so one broken site
// cannot abort a rebuild.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	var docs []models.Document

	if p.cfg.KnowledgeFile != "" {
		knowledge, err := LoadKnowledge(p.cfg.KnowledgeFile)
		if err != nil {
			return stats, err
		}
		stats.KnowledgeDocs = len(knowledge)
		docs = append(docs, knowledge...)
		p.logger.Info("knowledge entries loaded", "count", len(knowledge))
	}

	if p.fetcher != nil && p.chunker != nil && len(p.cfg.GuideURLs) > 0 {
		guides, pages, err := p.collectGuides(ctx)
		if err != nil {
			return stats, err
		}
		stats.GuidePages = pages
		stats.GuideChunks = len(guides)
		docs = append(docs, guides...)
	}

	if len(docs) == 0 {
		return stats, errors.New("nothing to ingest")
	}

	vecs, err := p.embedAll(ctx, docs)
	if err != nil {
		return stats, err
	}

	if err := p.store.Insert(docs, vecs); err != nil {
		return stats, errors.Wrap(err, "store documents")
	}
	stats.Stored = len(docs)
	return stats, nil
}

func (p *Pipeline) collectGuides(ctx context.Context) ([]models.Document, int, error) {
	var pages []models.GuidePage
	for _, url := range p.cfg.GuideURLs {
		got, err := p.fetcher.Scrape(ctx, url)
		if err != nil {
			p.logger.Warn("guide fetch failed, skipping", "url", url, "error", err)
			continue
		}
		pages = append(pages, got...)
	}
	if len(pages) == 0 {
		return nil, 0, nil
	}

	chunked, err := p.chunker.Chunk(pages)
	if err != nil {
		return nil, 0, errors.Wrap(err, "chunk guide pages")
	}

	var docs []models.Document
	for _, guide := range chunked {
		for _, chunk := range guide.Chunks {
			docs = append(docs, models.Document{
				ID:       uuid.NewString(),
				Category: "guide",
				Title:    guide.Title,
				Content:  chunk,
			})
		}
	}
	p.logger.Info("guide pages chunked", "pages", len(pages), "chunks", len(docs))
	return docs, len(pages), nil
}

func (p *Pipeline) embedAll(ctx context.Context, docs []models.Document) ([][]float32, error) {
	total := len(docs)
	vecs := make([][]float32, 0, total)

	for start := 0; start < total; start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > total {
			end = total
		}

		texts := make([]string, 0, end-start)
		for _, doc := range docs[start:end] {
			texts = append(texts, doc.Content)
		}

		batch, err := p.embedder.EncodeBatch(ctx, texts)
		if err != nil {
			return nil, errors.Wrapf(err, "embed documents %d-%d", start, end-1)
		}
		vecs = append(vecs, batch...)

		if p.cfg.OnEmbedProgress != nil {
			p.cfg.OnEmbedProgress(end, total)
		}
	}
	return vecs, nil
}

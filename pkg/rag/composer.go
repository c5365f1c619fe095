package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/internal/types"
	"github.com/pawsona/pawsona/pkg/llm"
	"github.com/pawsona/pawsona/pkg/metrics"
)

const noResultsReply = "Sorry, I couldn't find anything about that. Could you try rephrasing your question?"

// Options tunes retrieval and prompting. Zero values fall back to the
// service defaults.
type Options struct {
	TopK          int
	MinScore      float64
	HistoryWindow int
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Request is a single chat turn to answer.
type Request struct {
	Query        string
	TypeCode     string
	Model        string
	UseGenerator bool
	History      []models.ChatMessage
}

// Composer answers chat queries by retrieving related documents and,
// when a generator is available, asking it to write the reply on top of
// that context.
type Composer struct {
	embedder  types.Embedder
	store     types.VectorStore
	generator types.Generator
	opts      Options
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewComposer(embedder types.Embedder, store types.VectorStore, generator types.Generator, opts Options) *Composer {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		embedder:  embedder,
		store:     store,
		generator: generator,
		opts:      opts,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Compose runs the full retrieval flow for one query. It never returns an
// error: generation failures degrade to a search-only answer, and failures
// that make retrieval impossible degrade to the no-results reply, so the
// caller always has something to show the user.
func (c *Composer) Compose(ctx context.Context, req Request) models.ComposedResponse {
	start := time.Now()
	resp, outcome := c.compose(ctx, req)
	c.metrics.RecordChatRequest(outcome, time.Since(start))
	c.logger.Info("chat request composed",
		"outcome", outcome,
		"type_code", req.TypeCode,
		"sources", len(resp.Sources),
		"used_generator", resp.UsedGenerator,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp
}

func (c *Composer) compose(ctx context.Context, req Request) (models.ComposedResponse, string) {
	queryVec, err := c.embedder.Encode(ctx, req.Query)
	if err != nil {
		c.logger.Error("embedding query failed", "error", err)
		return noResultsResponse(), "error"
	}

	docs, err := c.store.Search(queryVec, c.opts.TopK, req.TypeCode, c.opts.MinScore)
	if err != nil {
		c.logger.Error("vector search failed", "error", err)
		return noResultsResponse(), "error"
	}

	if len(docs) == 0 {
		return noResultsResponse(), "no_results"
	}

	sources := titles(docs)
	confidence := docs[0].Score

	if req.UseGenerator && c.generator != nil && c.generator.Available() {
		text, err := c.generate(ctx, req, docs)
		if err == nil {
			return models.ComposedResponse{
				Text:          text,
				Sources:       sources,
				Confidence:    confidence,
				UsedGenerator: true,
			}, "generated"
		}
		c.logger.Warn("generation failed, answering from retrieved content", "error", err)
		c.metrics.RecordGeneratorFailure(failureReason(err))
	}

	return models.ComposedResponse{
		Text:       directAnswer(req.TypeCode, docs),
		Sources:    sources,
		Confidence: confidence,
	}, "direct"
}

func (c *Composer) generate(ctx context.Context, req Request, docs []models.RetrievedDocument) (string, error) {
	history := trimHistory(req.History, c.opts.HistoryWindow)
	messages := buildMessages(req.Query, req.TypeCode, FormatContext(docs), history)

	text, err := c.generator.Complete(ctx, messages, req.Model, -1, 0)
	if err != nil {
		return "", err
	}
	return text + sourcesBlock(titles(docs)), nil
}

// directAnswer builds a reply straight from retrieval: the best match's
// content verbatim, the remaining titles as pointers, and a note when the
// results were filtered to one personality type.
func directAnswer(typeCode string, docs []models.RetrievedDocument) string {
	var b strings.Builder
	b.WriteString(docs[0].Content)

	if len(docs) > 1 {
		b.WriteString("\n\nRelated topics:")
		for _, doc := range docs[1:] {
			b.WriteString("\n- " + doc.Title)
		}
	}
	if typeCode != "" {
		b.WriteString("\n\nThis looks especially relevant for the " + typeCode + " type.")
	}
	return b.String()
}

func sourcesBlock(titles []string) string {
	if len(titles) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nSources:")
	for i, title := range titles {
		fmt.Fprintf(&b, "\n%d. %s", i+1, title)
	}
	return b.String()
}

func titles(docs []models.RetrievedDocument) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.Title
	}
	return out
}

// noResultsResponse also covers failures that make retrieval impossible,
// like an unreachable embedding backend; the caller only sees that no
// information was found.
func noResultsResponse() models.ComposedResponse {
	return models.ComposedResponse{
		Text:    noResultsReply,
		Sources: []string{},
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, llm.ErrTimeout):
		return "timeout"
	case errors.Is(err, llm.ErrMalformed):
		return "malformed"
	case errors.Is(err, llm.ErrProvider):
		return "provider"
	default:
		return "other"
	}
}

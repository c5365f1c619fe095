// Package server exposes the Pawsona HTTP API: the RAG chat endpoint, the
// personality questionnaire, the type catalog, health and metrics. A
// websocket endpoint mirrors the chat endpoint for interactive frontends.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/internal/types"
	"github.com/pawsona/pawsona/pkg/catalog"
	"github.com/pawsona/pawsona/pkg/metrics"
	"github.com/pawsona/pawsona/pkg/rag"
)

// ChatComposer produces a reply for one chat turn. Satisfied by
// rag.Composer.
type ChatComposer interface {
	Compose(ctx context.Context, req rag.Request) models.ComposedResponse
}

type Config struct {
	Addr         string
	AllowOrigins []string
}

type Server struct {
	cfg      Config
	echo     *echo.Echo
	composer ChatComposer
	catalog  *catalog.Catalog
	store    types.VectorStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(composer ChatComposer, cat *catalog.Catalog, store types.VectorStore, m *metrics.Metrics, logger *slog.Logger, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		echo:     echo.New(),
		composer: composer,
		catalog:  cat,
		store:    store,
		metrics:  m,
		logger:   logger,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo

	e.Use(middleware.Recover())

	origins := s.cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))

	api := e.Group("/api")
	api.POST("/chat", s.handleChat)

	pawna := api.Group("/pawna")
	pawna.GET("/questions", s.handleQuestions)
	pawna.POST("/submit", s.handleSubmit)
	pawna.GET("/types", s.handleTypes)
	pawna.GET("/types/:code", s.handleType)

	e.GET("/health", s.handleHealth)
	e.GET("/ws", s.handleWebSocket)

	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func now() time.Time {
	return time.Now().UTC()
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pawsona/pawsona/pkg/catalog"
	"github.com/pawsona/pawsona/pkg/metrics"
	"github.com/pawsona/pawsona/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Pawsona HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Structured JSON logs for the service path.
		srvLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(logLevel),
		}))

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		cat, err := catalog.Load(cfg.Catalog.TypesCSV, srvLogger)
		if err != nil {
			return err
		}

		m := metrics.New()
		m.SetDocumentCount(st.Count())

		gateway := newGateway(cfg)
		if !gateway.Available() {
			srvLogger.Warn("no OpenRouter API key configured, answers come from retrieval only")
		}

		composer := newComposer(cfg, st, gateway, srvLogger, m)
		srv := server.New(composer, cat, st, m, srvLogger, server.Config{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			AllowOrigins: cfg.Server.CORSOrigins,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-quit:
			srvLogger.Info("shutting down", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pawsona/pawsona/pkg/config"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pawsona",
	Short: "Dog personality knowledge base with retrieval-augmented chat",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Best effort, the file is optional.
		_ = godotenv.Load()

		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if problems := loaded.Validate(); len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(os.Stderr, "config: %s\n", p)
			}
			return fmt.Errorf("invalid configuration (%d problems)", len(problems))
		}

		cfg = loaded
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(logLevel),
		}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd, ingestCmd, chatCmd)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pawsona/pawsona/internal/types"
	"github.com/pawsona/pawsona/pkg/ingest"
	"github.com/pawsona/pawsona/pkg/processor"
	"github.com/pawsona/pawsona/pkg/scraper"
)

var (
	ingestKnowledge string
	ingestGuides    []string
	ingestNoGuides  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the knowledge base from the knowledge file and guide sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestKnowledge != "" {
			cfg.Ingest.KnowledgeFile = ingestKnowledge
		}
		if len(ingestGuides) > 0 {
			cfg.Ingest.GuideURLs = ingestGuides
		}
		if ingestNoGuides {
			cfg.Ingest.GuideURLs = nil
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		var fetcher ingest.Fetcher
		var chunker types.Chunker
		var fetchBar *progressbar.ProgressBar

		if len(cfg.Ingest.GuideURLs) > 0 {
			fetchBar = getProgressBar(-1, " Fetching guide pages")
			fetcher = scraper.New(scraper.Config{
				MaxDepth:  cfg.Ingest.MaxDepth,
				RateLimit: cfg.Ingest.RateLimit,
				Logger:    logger,
				OnProgress: func(string) {
					fetchBar.Add(1)
				},
			})
			chunker = processor.New(processor.Config{
				ChunkSize:      cfg.Ingest.ChunkSize,
				ChunkOverlap:   cfg.Ingest.ChunkOverlap,
				MinChunkLength: cfg.Ingest.MinChunkLength,
			})
		}

		var embedBar *progressbar.ProgressBar
		pipeline := ingest.NewPipeline(newEmbedder(cfg), st, fetcher, chunker, ingest.Config{
			KnowledgeFile: cfg.Ingest.KnowledgeFile,
			GuideURLs:     cfg.Ingest.GuideURLs,
			BatchSize:     cfg.Ingest.BatchSize,
			Logger:        logger,
			OnEmbedProgress: func(done, total int) {
				if embedBar == nil {
					if fetchBar != nil {
						fetchBar.Finish()
					}
					embedBar = getProgressBar(total, " Embedding documents")
				}
				embedBar.Set(done)
			},
		})

		start := time.Now()
		stats, err := pipeline.Run(cmd.Context())
		if embedBar != nil {
			embedBar.Finish()
		}
		if err != nil {
			return err
		}

		color.Green("\n✓ Ingested %d documents in %s", stats.Stored, time.Since(start).Round(time.Millisecond))
		color.Blue("  knowledge entries: %d", stats.KnowledgeDocs)
		if stats.GuidePages > 0 {
			color.Blue("  guide pages: %d (%d chunks)", stats.GuidePages, stats.GuideChunks)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestKnowledge, "knowledge", "", "knowledge JSON file (overrides config)")
	ingestCmd.Flags().StringSliceVar(&ingestGuides, "guide", nil, "guide site URL to crawl (repeatable, overrides config)")
	ingestCmd.Flags().BoolVar(&ingestNoGuides, "no-guides", false, "skip guide crawling")
}

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/docent-ai/docent/internal/app"
	"github.com/docent-ai/docent/internal/config"
	"github.com/docent-ai/docent/internal/log"
)

// runIngest rebuilds every dataset partition from the configured corpus
// directories and prints a per-dataset summary.
func runIngest(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			logger.Warn("close error", "error", closeErr)
		}
	}()

	sources, err := application.Sources()
	if err != nil {
		return err
	}

	report, err := application.NewPipeline().Run(ctx, sources)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println("Ingestion complete.")
	for _, ds := range report.Datasets {
		fmt.Printf("  %-16s files=%d dropped=%d chunks=%d upserted=%d\n",
			ds.DatasetID, ds.Files, ds.Dropped, ds.Chunks, ds.Upserted)
	}
	fmt.Printf("  duration: %s\n", report.Duration.Round(time.Millisecond))
	return nil
}

// Package ingest rebuilds vector index datasets from corpus directories:
// read, normalize, embed, reset the partition, upsert in batches.
//
// A run is all-or-nothing per dataset. Files without usable metadata are
// dropped and counted, but an embedding or index failure aborts the run so a
// half-written dataset never goes live unnoticed.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/docent-ai/docent/internal/corpus"
	"github.com/docent-ai/docent/internal/log"
	"github.com/docent-ai/docent/internal/vecindex"
)

// Embedder is the slice of the retrieval client the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the slice of the vector index the pipeline needs.
type Index interface {
	Reset(ctx context.Context, datasetID string) error
	Upsert(ctx context.Context, entries []vecindex.Entry) error
}

// Reader produces a dataset from a corpus directory.
type Reader interface {
	Read(dir, datasetID string) (corpus.Dataset, corpus.ReadReport, error)
}

// Source pairs a corpus directory with its target dataset partition.
type Source struct {
	Dir       string
	DatasetID string
}

// DatasetReport summarizes one rebuilt dataset.
type DatasetReport struct {
	DatasetID string
	Files     int
	Dropped   int
	Chunks    int
	Upserted  int
}

// Report summarizes a full ingestion run.
type Report struct {
	Datasets []DatasetReport
	Duration time.Duration
}

// Pipeline drives the read-embed-upsert sequence.
type Pipeline struct {
	reader   Reader
	embedder Embedder
	index    Index
	limiter  *rate.Limiter
	logger   log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRateLimit caps embedding calls per second. Zero or negative disables
// the cap.
func WithRateLimit(perSec float64) Option {
	return func(p *Pipeline) {
		if perSec > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

func New(reader Reader, embedder Embedder, index Index, logger log.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		reader:   reader,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run rebuilds every source dataset in order.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (*Report, error) {
	start := time.Now()
	report := &Report{}

	for _, src := range sources {
		dsReport, err := p.runDataset(ctx, src)
		if err != nil {
			return nil, err
		}
		report.Datasets = append(report.Datasets, dsReport)
	}

	report.Duration = time.Since(start)
	p.logger.Info("ingestion complete",
		"datasets", len(report.Datasets), "duration", report.Duration)
	return report, nil
}

func (p *Pipeline) runDataset(ctx context.Context, src Source) (DatasetReport, error) {
	ds, readReport, err := p.reader.Read(src.Dir, src.DatasetID)
	if err != nil {
		return DatasetReport{}, fmt.Errorf("reading corpus for %s: %w", src.DatasetID, err)
	}

	p.logger.Info("corpus read",
		"dataset", src.DatasetID,
		"files", readReport.Files,
		"chunks", len(ds.Chunks),
		"dropped", readReport.Dropped)

	// Embedding happens before the reset so a provider failure leaves the
	// live dataset untouched.
	entries := make([]vecindex.Entry, 0, len(ds.Chunks))
	for ordinal, chunk := range ds.Chunks {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return DatasetReport{}, fmt.Errorf("waiting for embed rate limit: %w", err)
			}
		}

		input := chunk.EmbedInput()
		embedding, err := p.embedder.Embed(ctx, input)
		if err != nil {
			return DatasetReport{}, fmt.Errorf("embedding chunk %d of %s: %w", ordinal, src.DatasetID, err)
		}

		entries = append(entries, vecindex.Entry{
			ID:          vecindex.EntryID(src.DatasetID, ordinal),
			DatasetID:   src.DatasetID,
			Embedding:   embedding,
			Content:     input,
			Title:       chunk.Title,
			Description: chunk.Description,
		})
	}

	if err := p.index.Reset(ctx, src.DatasetID); err != nil {
		return DatasetReport{}, fmt.Errorf("resetting dataset %s: %w", src.DatasetID, err)
	}

	if err := p.index.Upsert(ctx, entries); err != nil {
		return DatasetReport{}, fmt.Errorf("upserting dataset %s: %w", src.DatasetID, err)
	}

	return DatasetReport{
		DatasetID: src.DatasetID,
		Files:     readReport.Files,
		Dropped:   readReport.Dropped,
		Chunks:    len(ds.Chunks),
		Upserted:  len(entries),
	}, nil
}

// Package vecindex is the client for the pre-built vector index backing
// retrieval. The index is a single PostgreSQL table partitioned logically by
// dataset id; entries carry deterministic ids so re-ingestion rewrites a
// dataset in place.
package vecindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docent-ai/docent/internal/log"
)

// Dimension is the embedding width of every entry. It matches the
// vector(1536) column in the schema and the default embedder model.
const Dimension = 1536

// DefaultBatchSize is the number of entries written per upsert round trip.
const DefaultBatchSize = 100

var (
	// ErrIndexUnavailable indicates the index handle was never initialized.
	// Callers check this explicitly rather than treating it as empty results.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector whose length is not Dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Entry is one embedded chunk stored in the index.
type Entry struct {
	ID          string
	DatasetID   string
	Embedding   []float32
	Content     string
	Title       string
	Description string
}

// Match is one query result, ordered by descending cosine similarity.
type Match struct {
	ID          string
	Content     string
	Title       string
	Description string
	Similarity  float64
}

// Querier defines the storage operations the index needs. The interface is
// defined here, by the consumer; PG implements it on a pgx pool.
type Querier interface {
	DeleteDataset(ctx context.Context, datasetID string) (int64, error)
	UpsertEntries(ctx context.Context, entries []Entry) error
	SearchDataset(ctx context.Context, embedding []float32, datasetID string, limit int) ([]Match, error)
	CountDataset(ctx context.Context, datasetID string) (int64, error)
}

// EntryID returns the deterministic id for the ordinal-th chunk of a dataset.
// Ordinals are dataset-wide positions, not per-batch offsets.
func EntryID(datasetID string, ordinal int) string {
	return fmt.Sprintf("vector_%s_%d", datasetID, ordinal)
}

// Index provides dataset-scoped access to the vector store.
// Safe for concurrent use as long as the Querier is.
type Index struct {
	querier   Querier
	logger    log.Logger
	batchSize int
}

// Option configures an Index.
type Option func(*Index)

// WithBatchSize overrides the upsert batch size.
func WithBatchSize(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// New creates an index client. A nil querier yields an index whose every
// operation reports ErrIndexUnavailable.
func New(querier Querier, logger log.Logger, opts ...Option) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Index{
		querier:   querier,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Reset removes every entry of the given dataset. Other datasets are
// untouched, so a full re-ingestion never leaves orphaned ordinals behind.
func (ix *Index) Reset(ctx context.Context, datasetID string) error {
	if ix.querier == nil {
		return ErrIndexUnavailable
	}

	removed, err := ix.querier.DeleteDataset(ctx, datasetID)
	if err != nil {
		return fmt.Errorf("resetting dataset %s: %w", datasetID, err)
	}

	ix.logger.Debug("dataset reset", "dataset", datasetID, "removed", removed)
	return nil
}

// Upsert writes entries in batches. Entries must already carry their ids;
// a vector of the wrong width fails the whole call before any write.
func (ix *Index) Upsert(ctx context.Context, entries []Entry) error {
	if ix.querier == nil {
		return ErrIndexUnavailable
	}

	for _, e := range entries {
		if len(e.Embedding) != Dimension {
			return fmt.Errorf("%w: entry %s has %d dimensions, want %d",
				ErrDimensionMismatch, e.ID, len(e.Embedding), Dimension)
		}
	}

	for start := 0; start < len(entries); start += ix.batchSize {
		end := min(start+ix.batchSize, len(entries))
		if err := ix.querier.UpsertEntries(ctx, entries[start:end]); err != nil {
			return fmt.Errorf("upserting entries %d..%d: %w", start, end-1, err)
		}
	}

	ix.logger.Debug("entries upserted", "count", len(entries), "batch_size", ix.batchSize)
	return nil
}

// Query returns the topK most similar entries within one dataset, ordered by
// descending cosine similarity. Ties keep the store's native order.
func (ix *Index) Query(ctx context.Context, embedding []float32, datasetID string, topK int) ([]Match, error) {
	if ix.querier == nil {
		return nil, ErrIndexUnavailable
	}
	if len(embedding) != Dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, want %d",
			ErrDimensionMismatch, len(embedding), Dimension)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	matches, err := ix.querier.SearchDataset(ctx, embedding, datasetID, topK)
	if err != nil {
		return nil, fmt.Errorf("querying dataset %s: %w", datasetID, err)
	}
	return matches, nil
}

// Count returns the number of entries in one dataset.
func (ix *Index) Count(ctx context.Context, datasetID string) (int64, error) {
	if ix.querier == nil {
		return 0, ErrIndexUnavailable
	}
	n, err := ix.querier.CountDataset(ctx, datasetID)
	if err != nil {
		return 0, fmt.Errorf("counting dataset %s: %w", datasetID, err)
	}
	return n, nil
}

// Package retrieval composes the embedding provider with the vector index:
// a question goes in, the most similar chunk texts come out.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"

	"github.com/docent-ai/docent/internal/log"
	"github.com/docent-ai/docent/internal/vecindex"
)

// DefaultTopK is used when the caller does not specify how many chunks to
// retrieve.
const DefaultTopK = 5

// ErrProvider indicates a transport or provider failure while embedding.
// The client does not retry; callers decide whether the turn dies or the
// ingestion run aborts.
var ErrProvider = errors.New("embedding provider failure")

// ErrIndexUnavailable mirrors the index sentinel so callers holding only a
// retrieval client can still discriminate the condition.
var ErrIndexUnavailable = vecindex.ErrIndexUnavailable

// Searcher is the slice of the vector index the client needs.
type Searcher interface {
	Query(ctx context.Context, embedding []float32, datasetID string, topK int) ([]vecindex.Match, error)
}

// Client answers similarity questions over one or more datasets.
// Safe for concurrent use.
type Client struct {
	embedder ai.Embedder
	index    Searcher
	logger   log.Logger
}

func New(embedder ai.Embedder, index Searcher, logger log.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{embedder: embedder, index: index, logger: logger}
}

// Embed turns one text into its embedding vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", ErrProvider)
	}

	return resp.Embeddings[0].Embedding, nil
}

// Search embeds the question and returns the topK most similar matches
// within one dataset.
func (c *Client) Search(ctx context.Context, question, datasetID string, topK int) ([]vecindex.Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := c.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	matches, err := c.index.Query(ctx, embedding, datasetID, topK)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("retrieval search",
		"dataset", datasetID, "top_k", topK, "matches", len(matches))
	return matches, nil
}

// RelevantChunks returns just the chunk texts, in descending similarity
// order. This is the shape the retrieval tools hand to the model.
func (c *Client) RelevantChunks(ctx context.Context, question, datasetID string, topK int) ([]string, error) {
	matches, err := c.Search(ctx, question, datasetID, topK)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Content)
	}
	return texts, nil
}

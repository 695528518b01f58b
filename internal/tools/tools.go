// Package tools declares the retrieval tools the model may call. The tool
// set is fixed: one tool per dataset, both sharing the same input schema.
// Tools are declared to Genkit for schema advertisement, and executed through
// the Registry so the agent controls the fan-out itself.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/docent-ai/docent/internal/corpus"
	"github.com/docent-ai/docent/internal/log"
)

// Genkit tool names. The prompt template references these.
const (
	DocumentationToolName = "get_relevant_documentation_chunks"
	CookbooksToolName     = "get_relevant_cookbooks_chunks"
)

// TopK bounds for a single retrieval call.
const (
	DefaultTopK = 5
	MaxTopK     = 10
)

// SearchInput is the model-facing input schema shared by both tools.
type SearchInput struct {
	Question string `json:"question" jsonschema_description:"The user question to find relevant chunks for"`
	TopK     int    `json:"top_k,omitempty" jsonschema_description:"Maximum chunks to return (1-10, default 5)"`
}

// Retriever is the slice of the retrieval client the tools need.
type Retriever interface {
	RelevantChunks(ctx context.Context, question, datasetID string, topK int) ([]string, error)
}

// Retrieval holds the dependencies of the retrieval tool handlers.
type Retrieval struct {
	retriever Retriever
	logger    log.Logger
}

func NewRetrieval(retriever Retriever, logger log.Logger) (*Retrieval, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrieval{retriever: retriever, logger: logger}, nil
}

// Register declares both retrieval tools with Genkit and returns them for
// use in generate options.
func Register(g *genkit.Genkit, rt *Retrieval) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if rt == nil {
		return nil, fmt.Errorf("retrieval toolset is required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, DocumentationToolName,
			"Search the product documentation using semantic similarity. "+
				"Finds documentation pages conceptually related to the question. "+
				"Returns: the most relevant documentation chunks, best match first. "+
				"Use this for questions about features, configuration, and concepts. "+
				"Default top_k: 5. Maximum top_k: 10.",
			func(ctx *ai.ToolContext, input SearchInput) (string, error) {
				return rt.search(ctx, corpus.DatasetDocumentation, input)
			}),
		genkit.DefineTool(g, CookbooksToolName,
			"Search the cookbook examples using semantic similarity. "+
				"Finds runnable example code conceptually related to the question. "+
				"Returns: the most relevant cookbook chunks, best match first. "+
				"Use this when the user asks how to implement something concrete. "+
				"Default top_k: 5. Maximum top_k: 10.",
			func(ctx *ai.ToolContext, input SearchInput) (string, error) {
				return rt.search(ctx, corpus.DatasetCookbooks, input)
			}),
	}, nil
}

// search runs one retrieval and joins the chunks into the single text block
// handed back to the model.
func (rt *Retrieval) search(ctx context.Context, datasetID string, input SearchInput) (string, error) {
	topK := clampTopK(input.TopK, DefaultTopK)

	chunks, err := rt.retriever.RelevantChunks(ctx, input.Question, datasetID, topK)
	if err != nil {
		return "", fmt.Errorf("retrieving from %s: %w", datasetID, err)
	}

	rt.logger.Debug("retrieval tool executed",
		"dataset", datasetID, "top_k", topK, "chunks", len(chunks))
	return strings.Join(chunks, "\n"), nil
}

// clampTopK validates topK and returns a value within [1, MaxTopK].
// If topK <= 0, returns defaultVal.
func clampTopK(topK, defaultVal int) int {
	if topK <= 0 {
		return defaultVal
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

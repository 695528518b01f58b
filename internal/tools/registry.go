package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/docent-ai/docent/internal/corpus"
)

// ErrUnknownTool indicates the model requested a tool name outside the fixed
// set. The agent treats this as fatal for the turn rather than improvising.
var ErrUnknownTool = errors.New("unknown tool")

// Executor runs one decoded tool call.
type Executor func(ctx context.Context, input SearchInput) (string, error)

// Registry maps tool names to executors for the agent's fan-out. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	execs map[string]Executor
}

// Registry returns the execution registry for the fixed tool set.
func (rt *Retrieval) Registry() *Registry {
	return &Registry{execs: map[string]Executor{
		DocumentationToolName: func(ctx context.Context, input SearchInput) (string, error) {
			return rt.search(ctx, corpus.DatasetDocumentation, input)
		},
		CookbooksToolName: func(ctx context.Context, input SearchInput) (string, error) {
			return rt.search(ctx, corpus.DatasetCookbooks, input)
		},
	}}
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.execs))
	for name := range r.execs {
		names = append(names, name)
	}
	return names
}

// Execute decodes the raw tool input and runs the named tool.
func (r *Registry) Execute(ctx context.Context, name string, input any) (string, error) {
	exec, ok := r.execs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	decoded, err := decodeSearchInput(input)
	if err != nil {
		return "", fmt.Errorf("decoding input for %s: %w", name, err)
	}

	return exec(ctx, decoded)
}

// decodeSearchInput converts the loosely-typed tool request input into
// SearchInput. Tool requests arrive as map[string]any; numbers as float64.
func decodeSearchInput(input any) (SearchInput, error) {
	if input == nil {
		return SearchInput{}, nil
	}

	m, ok := input.(map[string]any)
	if !ok {
		return SearchInput{}, fmt.Errorf("unexpected tool input type %T", input)
	}

	var in SearchInput
	if q, ok := m["question"].(string); ok {
		in.Question = q
	}
	switch k := m["top_k"].(type) {
	case float64:
		in.TopK = int(k)
	case int:
		in.TopK = k
	}
	return in, nil
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/docent-ai/docent/internal/corpus"
	"github.com/docent-ai/docent/internal/log"
)

// ============================================================
// Mocks
// ============================================================

type mockRetriever struct {
	chunks  []string
	err     error
	gotQ    string
	gotDS   string
	gotTopK int
	calls   int
}

func (m *mockRetriever) RelevantChunks(_ context.Context, question, datasetID string, topK int) ([]string, error) {
	m.calls++
	m.gotQ = question
	m.gotDS = datasetID
	m.gotTopK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

// ============================================================
// Construction
// ============================================================

func TestNewRetrieval_RequiresRetriever(t *testing.T) {
	if _, err := NewRetrieval(nil, log.NewNop()); err == nil {
		t.Error("NewRetrieval(nil) did not fail")
	}
}

// ============================================================
// clampTopK
// ============================================================

func TestClampTopK(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultTopK},
		{-3, DefaultTopK},
		{1, 1},
		{7, 7},
		{10, 10},
		{25, MaxTopK},
	}

	for _, tt := range tests {
		if got := clampTopK(tt.in, DefaultTopK); got != tt.want {
			t.Errorf("clampTopK(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// ============================================================
// Registry execution
// ============================================================

func TestRegistry_Execute_Documentation(t *testing.T) {
	retriever := &mockRetriever{chunks: []string{"chunk one", "chunk two"}}
	rt, err := NewRetrieval(retriever, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	out, err := rt.Registry().Execute(context.Background(), DocumentationToolName,
		map[string]any{"question": "how do I stream?", "top_k": float64(3)})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if out != "chunk one\nchunk two" {
		t.Errorf("output = %q", out)
	}
	if retriever.gotDS != corpus.DatasetDocumentation {
		t.Errorf("dataset = %q", retriever.gotDS)
	}
	if retriever.gotQ != "how do I stream?" || retriever.gotTopK != 3 {
		t.Errorf("question = %q, topK = %d", retriever.gotQ, retriever.gotTopK)
	}
}

func TestRegistry_Execute_Cookbooks(t *testing.T) {
	retriever := &mockRetriever{chunks: []string{"recipe"}}
	rt, _ := NewRetrieval(retriever, log.NewNop())

	if _, err := rt.Registry().Execute(context.Background(), CookbooksToolName,
		map[string]any{"question": "example"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if retriever.gotDS != corpus.DatasetCookbooks {
		t.Errorf("dataset = %q", retriever.gotDS)
	}
	if retriever.gotTopK != DefaultTopK {
		t.Errorf("topK = %d, want default %d", retriever.gotTopK, DefaultTopK)
	}
}

func TestRegistry_Execute_UnknownTool(t *testing.T) {
	rt, _ := NewRetrieval(&mockRetriever{}, log.NewNop())

	_, err := rt.Registry().Execute(context.Background(), "delete_everything", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Execute() = %v, want ErrUnknownTool", err)
	}
}

func TestRegistry_Execute_RetrieverFailure(t *testing.T) {
	retriever := &mockRetriever{err: fmt.Errorf("index gone")}
	rt, _ := NewRetrieval(retriever, log.NewNop())

	if _, err := rt.Registry().Execute(context.Background(), DocumentationToolName,
		map[string]any{"question": "q"}); err == nil {
		t.Error("Execute() swallowed the retriever failure")
	}
}

func TestRegistry_Execute_EmptyChunks(t *testing.T) {
	rt, _ := NewRetrieval(&mockRetriever{}, log.NewNop())

	out, err := rt.Registry().Execute(context.Background(), DocumentationToolName,
		map[string]any{"question": "q"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
}

func TestRegistry_Names(t *testing.T) {
	rt, _ := NewRetrieval(&mockRetriever{}, log.NewNop())

	names := rt.Registry().Names()
	if len(names) != 2 {
		t.Fatalf("names = %v", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen[DocumentationToolName] || !seen[CookbooksToolName] {
		t.Errorf("names = %v", names)
	}
}

// ============================================================
// Input decoding
// ============================================================

func TestDecodeSearchInput(t *testing.T) {
	in, err := decodeSearchInput(map[string]any{"question": "q", "top_k": float64(4)})
	if err != nil {
		t.Fatalf("decodeSearchInput() error: %v", err)
	}
	if in.Question != "q" || in.TopK != 4 {
		t.Errorf("decoded = %+v", in)
	}
}

func TestDecodeSearchInput_Nil(t *testing.T) {
	in, err := decodeSearchInput(nil)
	if err != nil {
		t.Fatalf("decodeSearchInput(nil) error: %v", err)
	}
	if in != (SearchInput{}) {
		t.Errorf("decoded = %+v", in)
	}
}

func TestDecodeSearchInput_WrongType(t *testing.T) {
	if _, err := decodeSearchInput("not a map"); err == nil {
		t.Error("decodeSearchInput accepted a string input")
	}
}

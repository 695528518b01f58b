package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/docent-ai/docent/internal/log"
	"github.com/docent-ai/docent/internal/vecindex"
)

// ============================================================
// Mocks
// ============================================================

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedErr    error
	returnEmpty bool
	vector      []float32
	lastInput   string
	callCount   int
}

func (*mockEmbedder) Name() string { return "mock-embedder" }

func (*mockEmbedder) Register(api.Registry) {}

func (m *mockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastInput = req.Input[0].Content[0].Text
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.returnEmpty {
		return &ai.EmbedResponse{}, nil
	}
	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: m.vector}},
	}, nil
}

// mockSearcher records queries and serves canned matches.
type mockSearcher struct {
	matches   []vecindex.Match
	err       error
	gotTopK   int
	gotDS     string
	gotVector []float32
}

func (m *mockSearcher) Query(_ context.Context, embedding []float32, datasetID string, topK int) ([]vecindex.Match, error) {
	m.gotVector = embedding
	m.gotDS = datasetID
	m.gotTopK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.matches, nil
}

func testVector() []float32 {
	v := make([]float32, vecindex.Dimension)
	v[0] = 1
	return v
}

// ============================================================
// Embed
// ============================================================

func TestClient_Embed(t *testing.T) {
	emb := &mockEmbedder{vector: testVector()}
	c := New(emb, &mockSearcher{}, log.NewNop())

	vec, err := c.Embed(context.Background(), "how do I configure streaming?")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vec) != vecindex.Dimension {
		t.Errorf("vector length = %d", len(vec))
	}
	if emb.lastInput != "how do I configure streaming?" {
		t.Errorf("embedder input = %q", emb.lastInput)
	}
}

func TestClient_Embed_ProviderFailure(t *testing.T) {
	emb := &mockEmbedder{embedErr: errors.New("429 too many requests")}
	c := New(emb, &mockSearcher{}, log.NewNop())

	_, err := c.Embed(context.Background(), "q")
	if !errors.Is(err, ErrProvider) {
		t.Errorf("Embed() = %v, want ErrProvider", err)
	}
}

func TestClient_Embed_EmptyResponse(t *testing.T) {
	emb := &mockEmbedder{returnEmpty: true}
	c := New(emb, &mockSearcher{}, log.NewNop())

	if _, err := c.Embed(context.Background(), "q"); !errors.Is(err, ErrProvider) {
		t.Errorf("Embed() = %v, want ErrProvider", err)
	}
}

// ============================================================
// Search
// ============================================================

func TestClient_Search(t *testing.T) {
	emb := &mockEmbedder{vector: testVector()}
	idx := &mockSearcher{matches: []vecindex.Match{
		{ID: "vector_ds_3", Content: "high", Similarity: 0.92},
		{ID: "vector_ds_1", Content: "low", Similarity: 0.41},
	}}
	c := New(emb, idx, log.NewNop())

	matches, err := c.Search(context.Background(), "question", "dataset_documentation", 3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d", len(matches))
	}
	if idx.gotDS != "dataset_documentation" || idx.gotTopK != 3 {
		t.Errorf("index queried with dataset=%q topK=%d", idx.gotDS, idx.gotTopK)
	}
}

func TestClient_Search_DefaultTopK(t *testing.T) {
	idx := &mockSearcher{}
	c := New(&mockEmbedder{vector: testVector()}, idx, log.NewNop())

	if _, err := c.Search(context.Background(), "q", "ds", 0); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if idx.gotTopK != DefaultTopK {
		t.Errorf("topK = %d, want %d", idx.gotTopK, DefaultTopK)
	}
}

func TestClient_Search_IndexUnavailable(t *testing.T) {
	idx := &mockSearcher{err: vecindex.ErrIndexUnavailable}
	c := New(&mockEmbedder{vector: testVector()}, idx, log.NewNop())

	_, err := c.Search(context.Background(), "q", "ds", 5)
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("Search() = %v, want ErrIndexUnavailable", err)
	}
}

// ============================================================
// RelevantChunks
// ============================================================

func TestClient_RelevantChunks(t *testing.T) {
	idx := &mockSearcher{matches: []vecindex.Match{
		{Content: "first", Similarity: 0.9},
		{Content: "second", Similarity: 0.7},
		{Content: "third", Similarity: 0.2},
	}}
	c := New(&mockEmbedder{vector: testVector()}, idx, log.NewNop())

	texts, err := c.RelevantChunks(context.Background(), "q", "ds", 3)
	if err != nil {
		t.Fatalf("RelevantChunks() error: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(texts) != len(want) {
		t.Fatalf("texts = %v", texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("texts[%d] = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestClient_RelevantChunks_NoMatches(t *testing.T) {
	c := New(&mockEmbedder{vector: testVector()}, &mockSearcher{}, log.NewNop())

	texts, err := c.RelevantChunks(context.Background(), "q", "ds", 5)
	if err != nil {
		t.Fatalf("RelevantChunks() error: %v", err)
	}
	if len(texts) != 0 {
		t.Errorf("texts = %v, want empty", texts)
	}
}

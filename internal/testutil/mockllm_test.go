package testutil

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func userRequest(text string) *ai.ModelRequest {
	return &ai.ModelRequest{
		Messages: []*ai.Message{ai.NewUserMessage(ai.NewTextPart(text))},
	}
}

func TestMockLLM_PatternMatching(t *testing.T) {
	t.Parallel()

	m := NewMockLLM("default response")
	m.AddResponse("hello", "hi there")
	m.AddResponse("hello", "never reached")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exact match", "hello", "hi there"},
		{"case insensitive", "HELLO world", "hi there"},
		{"no match falls back", "goodbye", "default response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.generate(context.Background(), userRequest(tt.input), nil)
			if err != nil {
				t.Fatalf("generate() error = %v", err)
			}
			if got := resp.Message.Text(); got != tt.want {
				t.Errorf("generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMockLLM_CallRecording(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("ok")
	m.AddResponse("special", "special response")

	if _, err := m.generate(context.Background(), userRequest("hello"), nil); err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	cb := func(context.Context, *ai.ModelResponseChunk) error { return nil }
	if _, err := m.generate(context.Background(), userRequest("special input"), cb); err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	want := []MockCall{
		{UserMessage: "hello", Response: "ok"},
		{UserMessage: "special input", Response: "special response", Streamed: true},
	}
	if diff := cmp.Diff(want, m.Calls()); diff != "" {
		t.Errorf("Calls() mismatch (-want +got):\n%s", diff)
	}

	m.Reset()
	if got := len(m.Calls()); got != 0 {
		t.Errorf("Calls() after Reset() len = %d, want 0", got)
	}
}

func TestMockLLM_StreamedResponseChunks(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("fallback")
	m.AddStreamedResponse("story", []string{"once ", "upon ", "a time"})

	var chunks []string
	cb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		chunks = append(chunks, chunk.Text())
		return nil
	}

	resp, err := m.generate(context.Background(), userRequest("tell me a story"), cb)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	if diff := cmp.Diff([]string{"once ", "upon ", "a time"}, chunks); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}
	if got := resp.Message.Text(); got != "once upon a time" {
		t.Errorf("full response = %q", got)
	}
}

func TestMockLLM_StreamCallbackErrorAborts(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("fallback")
	m.AddStreamedResponse("story", []string{"a", "b", "c"})

	cbErr := errors.New("consumer gone")
	calls := 0
	cb := func(context.Context, *ai.ModelResponseChunk) error {
		calls++
		if calls == 2 {
			return cbErr
		}
		return nil
	}

	if _, err := m.generate(context.Background(), userRequest("story"), cb); !errors.Is(err, cbErr) {
		t.Fatalf("generate() error = %v, want callback error", err)
	}
	if calls != 2 {
		t.Errorf("callback invoked %d times, want 2", calls)
	}
}

func TestMockLLM_Usage(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("ok")
	m.SetUsage(120, 34)

	resp, err := m.generate(context.Background(), userRequest("anything"), nil)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	if resp.Usage == nil || resp.Usage.OutputTokens != 34 || resp.Usage.TotalTokens != 154 {
		t.Errorf("Usage = %+v, want 120 in / 34 out", resp.Usage)
	}
}

func TestMockLLM_ToolRuleSkippedAfterToolOutput(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("fallback")
	m.AddToolResponse("search", []*ai.ToolRequest{{Name: "lookup", Ref: "r1"}}, "")
	m.AddResponse("search", "grounded answer")

	// First round: no tool output yet, the tool rule fires.
	resp, err := m.generate(context.Background(), userRequest("search for it"), nil)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	if got := len(resp.ToolRequests()); got != 1 {
		t.Fatalf("first round tool requests = %d, want 1", got)
	}

	// Second round: transcript ends with a tool message, so the text rule wins.
	req := userRequest("search for it")
	req.Messages = append(req.Messages, &ai.Message{
		Role: ai.RoleTool,
		Content: []*ai.Part{ai.NewToolResponsePart(&ai.ToolResponse{
			Name: "lookup", Ref: "r1", Output: "found",
		})},
	})
	resp, err = m.generate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	if got := len(resp.ToolRequests()); got != 0 {
		t.Errorf("second round tool requests = %d, want 0", got)
	}
	if got := resp.Message.Text(); got != "grounded answer" {
		t.Errorf("second round text = %q", got)
	}
}

func TestMockLLM_RegisterModel(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("registered")
	g := genkit.Init(context.Background())

	model := m.RegisterModel(g)
	if model == nil {
		t.Fatal("RegisterModel() returned nil")
	}
	if found := genkit.LookupModel(g, "mock/test-model"); found == nil {
		t.Fatal("LookupModel() returned nil after registration")
	}
}

func TestMockEmbedder_DeterministicVector(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(1536)

	v1 := e.vectorFor("test content")
	v2 := e.vectorFor("test content")
	if diff := cmp.Diff(v1, v2); diff != "" {
		t.Errorf("same content produced different vectors:\n%s", diff)
	}
	if cmp.Equal(v1, e.vectorFor("different content")) {
		t.Error("different content produced the same vector")
	}

	// Unit length keeps cosine similarity well behaved.
	var norm float64
	for _, val := range v1 {
		norm += float64(val) * float64(val)
	}
	if norm = math.Sqrt(norm); math.Abs(norm-1.0) > 0.01 {
		t.Errorf("vector norm = %f, want ~1.0", norm)
	}
}

func TestMockEmbedder_ExplicitVector(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(3)

	custom := []float32{0.1, 0.2, 0.3}
	e.SetVector("special", custom)

	got := e.vectorFor("special")
	if diff := cmp.Diff(custom, got, cmpopts.EquateApprox(0, 0.001)); diff != "" {
		t.Errorf("vectorFor(\"special\") mismatch (-want +got):\n%s", diff)
	}
}

func TestMockEmbedder_EmbedRecordsAndFails(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(8)

	req := &ai.EmbedRequest{Input: []*ai.Document{
		ai.DocumentFromText("hello world", nil),
		ai.DocumentFromText("goodbye world", nil),
	}}
	resp, err := e.embed(context.Background(), req)
	if err != nil {
		t.Fatalf("embed() error = %v", err)
	}
	if got := len(resp.Embeddings); got != 2 {
		t.Fatalf("embed() returned %d embeddings, want 2", got)
	}
	if got := e.Calls(); len(got) != 2 || got[0] != "hello world" {
		t.Errorf("Calls() = %v", got)
	}

	wantErr := errors.New("quota exceeded")
	e.SetError(wantErr)
	if _, err := e.embed(context.Background(), req); !errors.Is(err, wantErr) {
		t.Errorf("embed() error = %v, want the injected error", err)
	}
}

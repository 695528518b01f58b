package stream

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// WriterSink forwards text to an io.Writer, typically stdout in the
// terminal client.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(_ context.Context, text string) error {
	if _, err := io.WriteString(s.w, text); err != nil {
		return fmt.Errorf("writing stream chunk: %w", err)
	}
	return nil
}

// BufferSink collects text in memory. Used by tests and by callers that
// deliver the answer in one piece.
type BufferSink struct {
	mu     sync.Mutex
	chunks []string
}

func (s *BufferSink) Write(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, text)
	return nil
}

// Chunks returns a copy of the received chunks in arrival order.
func (s *BufferSink) Chunks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(s.chunks))
	copy(cp, s.chunks)
	return cp
}

// String returns the concatenated text.
func (s *BufferSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sb []byte
	for _, c := range s.chunks {
		sb = append(sb, c...)
	}
	return string(sb)
}

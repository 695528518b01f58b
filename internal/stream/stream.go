// Package stream assembles the final answer from model stream chunks while
// forwarding them to a sink. The assembler keeps whatever arrived even when
// the stream dies early, so a disconnect never loses delivered text.
package stream

import (
	"context"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// DiscordRedirect is sent as a follow-up message when a Discord answer hits
// the platform's completion ceiling.
const DiscordRedirect = "Looks like you hit Discord's limit of 2000 characters. " +
	"Please visit the documentation site to get longer answers."

// Sink receives answer text as it is produced.
type Sink interface {
	Write(ctx context.Context, text string) error
}

// Result is the outcome of one assembled stream.
type Result struct {
	Text             string
	CompletionTokens int
}

// Assembler accumulates chunks and relays them to the sink. One assembler
// serves one generation; it is not reused.
type Assembler struct {
	sink Sink
	sb   strings.Builder
}

func NewAssembler(sink Sink) *Assembler {
	return &Assembler{sink: sink}
}

// OnChunk is the model streaming callback. A sink failure propagates so the
// generation stops consuming; text already assembled is retained.
func (a *Assembler) OnChunk(ctx context.Context, chunk *ai.ModelResponseChunk) error {
	text := chunk.Text()
	if text == "" {
		return nil
	}

	a.sb.WriteString(text)
	if a.sink != nil {
		return a.sink.Write(ctx, text)
	}
	return nil
}

// Text returns everything assembled so far.
func (a *Assembler) Text() string {
	return a.sb.String()
}

// Finish folds the final model response into the result. Usage comes from
// the response; when nothing was streamed the response text is used, which
// also covers non-streaming generations.
func (a *Assembler) Finish(resp *ai.ModelResponse) Result {
	r := Result{Text: a.sb.String()}
	if r.Text == "" && resp != nil && resp.Message != nil {
		r.Text = resp.Message.Text()
	}
	if resp != nil && resp.Usage != nil {
		r.CompletionTokens = resp.Usage.OutputTokens
	}
	return r
}

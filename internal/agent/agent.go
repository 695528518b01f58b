// Package agent runs the question answering loop: a planning generation that
// may request retrieval tools, a parallel tool fan-out, and a streamed final
// generation grounded on the tool output.
//
// The loop is deliberately non-recursive. One planning round decides the tool
// calls, the fan-out executes them, and one final round writes the answer.
// A planning response with no tool requests short-circuits straight to the
// answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/docent-ai/docent/internal/log"
	"github.com/docent-ai/docent/internal/session"
	"github.com/docent-ai/docent/internal/stream"
	"github.com/docent-ai/docent/internal/tools"
)

// ErrEmptyTurn indicates a turn with neither text nor attachments.
var ErrEmptyTurn = errors.New("empty turn")

// ErrUnknownTool aliases the registry sentinel so callers can match it
// without importing the tools package.
var ErrUnknownTool = tools.ErrUnknownTool

// Turn is one incoming user message.
type Turn struct {
	Text  string
	Media []*ai.Part
}

// Response is the outcome of one completed turn.
type Response struct {
	Text             string
	CompletionTokens int
	ToolCalls        []string
	Redirected       bool
}

// Agent orchestrates generations for a session. Safe for concurrent use
// across sessions; a single session must not run overlapping turns.
type Agent struct {
	g        *genkit.Genkit
	model    string
	registry *tools.Registry
	logger   log.Logger
}

// New creates an agent bound to a model and a tool registry. The model name
// carries the provider prefix, for example "openai/gpt-4o".
func New(g *genkit.Genkit, model string, registry *tools.Registry, logger log.Logger) *Agent {
	return &Agent{
		g:        g,
		model:    model,
		registry: registry,
		logger:   logger,
	}
}

// Respond runs one full turn: the user message is appended to the session,
// the loop executes, and the answer is streamed to the sink as it is
// generated. The answer is appended to the session before returning so the
// next turn sees the full transcript. On a streaming failure any partial
// text already generated is still recorded.
func (a *Agent) Respond(ctx context.Context, sess *session.Session, turn Turn, sink stream.Sink) (*Response, error) {
	if strings.TrimSpace(turn.Text) == "" && len(turn.Media) == 0 {
		return nil, ErrEmptyTurn
	}

	sess.Append(userMessage(turn))

	start := time.Now()

	plan, err := a.plan(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}

	reqs := plan.ToolRequests()
	if len(reqs) == 0 {
		return a.directAnswer(ctx, sess, plan, sink, start)
	}

	toolMsg, toolCalls, err := a.fanOut(ctx, sess, reqs)
	if err != nil {
		return nil, err
	}
	sess.Append(plan.Message, toolMsg)

	result, err := a.finalAnswer(ctx, sess, sink)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Text:             result.Text,
		CompletionTokens: result.CompletionTokens,
		ToolCalls:        toolCalls,
	}
	if err := a.redirect(ctx, sess, resp, sink); err != nil {
		return resp, err
	}

	a.logger.Info("turn completed",
		"session_id", sess.ID(),
		"tool_calls", len(toolCalls),
		"completion_tokens", resp.CompletionTokens,
		"duration", time.Since(start))

	return resp, nil
}

// plan runs the non-streamed planning generation with the session's tools
// advertised. Tool requests are returned to the loop instead of being
// executed inside the framework; the fan-out owns execution.
func (a *Agent) plan(ctx context.Context, sess *session.Session) (*ai.ModelResponse, error) {
	settings := sess.Settings()

	toolNames := sess.Tools()
	refs := make([]ai.ToolRef, 0, len(toolNames))
	for _, name := range toolNames {
		if tool := genkit.LookupTool(a.g, name); tool != nil {
			refs = append(refs, tool)
		}
	}

	a.logger.Debug("planning turn",
		"session_id", sess.ID(),
		"model", a.model,
		"tools", strings.Join(toolNames, ", "))

	return genkit.Generate(ctx, a.g,
		ai.WithModelName(a.model),
		ai.WithMessages(sess.History()...),
		ai.WithTools(refs...),
		ai.WithReturnToolRequests(true),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     float64(settings.Temperature),
			MaxOutputTokens: settings.MaxTokens,
		}),
	)
}

// fanOut executes the planned tool calls in parallel and assembles one tool
// message with a response part per request. Part order matches request
// order, and each response carries the request's Ref so the provider can
// correlate them. An unknown tool name fails the whole turn.
func (a *Agent) fanOut(ctx context.Context, sess *session.Session, reqs []*ai.ToolRequest) (*ai.Message, []string, error) {
	parts := make([]*ai.Part, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()

			started := time.Now()
			output, err := a.registry.Execute(ctx, req.Name, req.Input)
			if err != nil {
				errs[i] = fmt.Errorf("tool %s: %w", req.Name, err)
				return
			}

			a.logger.Debug("tool executed",
				"session_id", sess.ID(),
				"tool", req.Name,
				"duration", time.Since(started))

			parts[i] = ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   req.Name,
				Ref:    req.Ref,
				Output: output,
			})
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, nil, err
	}

	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Name
	}

	return &ai.Message{Role: ai.RoleTool, Content: parts}, names, nil
}

// finalAnswer streams the grounded answer. The transcript already ends with
// the tool results, so no tools are advertised here. Partial text from a
// failed stream is still appended to the session.
func (a *Agent) finalAnswer(ctx context.Context, sess *session.Session, sink stream.Sink) (stream.Result, error) {
	settings := sess.Settings()
	asm := stream.NewAssembler(sink)

	resp, err := genkit.Generate(ctx, a.g,
		ai.WithModelName(a.model),
		ai.WithMessages(sess.History()...),
		ai.WithStreaming(asm.OnChunk),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     float64(settings.Temperature),
			MaxOutputTokens: settings.MaxTokens,
		}),
	)
	if err != nil {
		if partial := asm.Text(); partial != "" {
			sess.Append(ai.NewModelTextMessage(partial))
		}
		return stream.Result{}, fmt.Errorf("generating answer: %w", err)
	}

	result := asm.Finish(resp)
	sess.Append(ai.NewModelTextMessage(result.Text))
	return result, nil
}

// directAnswer handles a planning response that requested no tools. The
// planning call is not streamed, so the full text is written to the sink in
// one piece.
func (a *Agent) directAnswer(ctx context.Context, sess *session.Session, plan *ai.ModelResponse, sink stream.Sink, start time.Time) (*Response, error) {
	text := plan.Text()

	if sink != nil && text != "" {
		if err := sink.Write(ctx, text); err != nil {
			sess.Append(ai.NewModelTextMessage(text))
			return nil, fmt.Errorf("writing answer: %w", err)
		}
	}
	sess.Append(ai.NewModelTextMessage(text))

	resp := &Response{Text: text}
	if plan.Usage != nil {
		resp.CompletionTokens = plan.Usage.OutputTokens
	}
	if err := a.redirect(ctx, sess, resp, sink); err != nil {
		return resp, err
	}

	a.logger.Info("turn completed",
		"session_id", sess.ID(),
		"tool_calls", 0,
		"completion_tokens", resp.CompletionTokens,
		"duration", time.Since(start))

	return resp, nil
}

// redirect appends Discord's length notice when the answer hit the platform
// token ceiling. Only Discord sessions redirect; the notice is written to
// the sink but kept out of the transcript.
func (a *Agent) redirect(ctx context.Context, sess *session.Session, resp *Response, sink stream.Sink) error {
	if sess.ClientKind() != session.ClientDiscord {
		return nil
	}
	if resp.CompletionTokens < session.DiscordMaxTokens {
		return nil
	}

	resp.Redirected = true
	if sink == nil {
		return nil
	}
	if err := sink.Write(ctx, "\n"+stream.DiscordRedirect); err != nil {
		return fmt.Errorf("writing redirect notice: %w", err)
	}
	return nil
}

func userMessage(turn Turn) *ai.Message {
	parts := make([]*ai.Part, 0, len(turn.Media)+1)
	if turn.Text != "" {
		parts = append(parts, ai.NewTextPart(turn.Text))
	}
	parts = append(parts, turn.Media...)
	return &ai.Message{Role: ai.RoleUser, Content: parts}
}

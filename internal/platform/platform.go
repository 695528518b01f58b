// Package platform adapts client-platform conversation context into session
// state. Stateless platforms (Discord resets the session on every message)
// rebuild their transcript from channel history before each turn; stateful
// clients like the terminal skip reconciliation entirely.
package platform

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/docent-ai/docent/internal/session"
)

// HistoryLimit is how many channel messages are fetched per reconciliation.
const HistoryLimit = 10

// Message is one platform channel message.
type Message struct {
	Content     string
	ChannelName string
	FromBot     bool // authored by the assistant's own account
}

// History fetches recent channel messages, newest first. Implementations
// wrap the platform SDK; the core only sees this interface.
type History interface {
	Recent(ctx context.Context, limit int) ([]Message, error)
}

// Reconcile appends the channel's recent history to the session transcript.
// Messages arrive newest first and are replayed chronologically; the newest
// one is dropped because it is the in-flight message the agent handles
// separately. Bot-authored messages become model turns, everything else a
// user turn, and empty content falls back to the channel name.
//
// Runs exactly once per incoming turn, before planning.
func Reconcile(ctx context.Context, sess *session.Session, hist History) error {
	if hist == nil {
		return nil
	}

	msgs, err := hist.Recent(ctx, HistoryLimit)
	if err != nil {
		return fmt.Errorf("fetching channel history: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}

	// Newest-first to chronological, then drop the in-flight message.
	for i := len(msgs) - 1; i >= 1; i-- {
		m := msgs[i]

		role := ai.RoleUser
		if m.FromBot {
			role = ai.RoleModel
		}

		content := m.Content
		if content == "" {
			content = m.ChannelName
		}

		sess.Append(&ai.Message{
			Role:    role,
			Content: []*ai.Part{ai.NewTextPart(content)},
		})
	}

	return nil
}

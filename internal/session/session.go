// Package session holds the mutable state of one conversation: the message
// transcript, the generation settings, and the tool names the model may call.
//
// State lives in memory for the duration of the conversation. A session is
// created from the prompt template and mutated only through its methods; the
// internal mutex makes the single-writer contract explicit.
package session

import (
	"slices"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/docent-ai/docent/internal/prompt"
)

// Client kinds. The kind decides platform-specific behavior such as the
// Discord token ceiling and history reconciliation.
const (
	ClientTerminal = "terminal"
	ClientWeb      = "web"
	ClientDiscord  = "discord"
)

// DiscordMaxTokens is the completion ceiling for Discord conversations.
// Discord caps messages at 2000 characters, which is roughly 400 tokens.
const DiscordMaxTokens = 400

// Session is the per-conversation state. Safe for concurrent use.
type Session struct {
	id         uuid.UUID
	clientKind string

	mu       sync.Mutex
	settings prompt.Settings
	tools    []string
	messages []*ai.Message
}

// New creates a session seeded from the prompt template. Discord sessions
// get their max tokens capped so answers fit the platform limit.
func New(clientKind string, tpl *prompt.Template) *Session {
	s := &Session{
		id:         uuid.New(),
		clientKind: clientKind,
		settings:   tpl.Settings,
		tools:      slices.Clone(tpl.Tools),
		messages:   tpl.SeedMessages(),
	}
	if clientKind == ClientDiscord && s.settings.MaxTokens > DiscordMaxTokens {
		s.settings.MaxTokens = DiscordMaxTokens
	}
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) ClientKind() string {
	return s.clientKind
}

// Settings returns a copy of the current generation settings.
func (s *Session) Settings() prompt.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetSettings replaces the generation settings.
func (s *Session) SetSettings(settings prompt.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Tools returns a copy of the allowed tool names.
func (s *Session) Tools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tools)
}

// Append adds messages to the end of the transcript.
func (s *Session) Append(msgs ...*ai.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

// History returns a copy of the transcript slice. Messages themselves are
// shared; callers must not mutate them.
func (s *Session) History() []*ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Len returns the transcript length.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

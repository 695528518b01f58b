// Package prompt holds the versioned prompt template: the seed messages,
// generation settings, and tool set every new conversation starts from.
//
// The default template is embedded; an operator can point prompt_path at a
// JSON file with the same shape to iterate on wording without rebuilding.
package prompt

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/firebase/genkit/go/ai"
)

//go:embed rag.json
var defaultTemplate []byte

// ErrInvalidTemplate indicates a template that parsed but fails validation.
var ErrInvalidTemplate = errors.New("invalid prompt template")

// Settings are the generation parameters seeded into each session.
// Sessions may tighten them afterwards (the Discord token cap does).
type Settings struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Message is one seed message of the template.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Template is the versioned prompt resource.
type Template struct {
	Name     string    `json:"name"`
	Version  int       `json:"version"`
	Messages []Message `json:"template_messages"`
	Settings Settings  `json:"settings"`
	Tools    []string  `json:"tools"`
}

// Default returns the embedded template.
func Default() (*Template, error) {
	return parse(defaultTemplate)
}

// Load reads a template override from path; an empty path yields the
// embedded default.
func Load(path string) (*Template, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt template %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Template) validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidTemplate)
	}
	if len(t.Messages) == 0 {
		return fmt.Errorf("%w: no template messages", ErrInvalidTemplate)
	}
	for i, m := range t.Messages {
		switch m.Role {
		case "system", "user", "assistant":
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidTemplate, i, m.Role)
		}
	}
	if t.Settings.Model == "" {
		return fmt.Errorf("%w: settings.model is empty", ErrInvalidTemplate)
	}
	if t.Settings.MaxTokens <= 0 {
		return fmt.Errorf("%w: settings.max_tokens must be positive", ErrInvalidTemplate)
	}
	if len(t.Tools) == 0 {
		return fmt.Errorf("%w: no tools declared", ErrInvalidTemplate)
	}
	return nil
}

// SeedMessages converts the template messages into the model message form
// sessions start from.
func (t *Template) SeedMessages() []*ai.Message {
	msgs := make([]*ai.Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		role := ai.RoleUser
		switch m.Role {
		case "system":
			role = ai.RoleSystem
		case "assistant":
			role = ai.RoleModel
		}
		msgs = append(msgs, &ai.Message{
			Role:    role,
			Content: []*ai.Part{ai.NewTextPart(m.Content)},
		})
	}
	return msgs
}

// Starter is one suggested opening question shown before the first message.
type Starter struct {
	Label   string
	Message string
}

// Starters returns the fixed conversation starters.
func Starters() []Starter {
	return []Starter{
		{Label: "App ideation", Message: "What kind of application can I build with this framework?"},
		{Label: "How does authentication work?", Message: "Explain the different options for authenticating users."},
		{Label: "Hello world", Message: "Write a minimal hello world app."},
		{Label: "Add a text element", Message: "How do I attach a text source chunk to a message?"},
	}
}

package platform

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/docent-ai/docent/internal/prompt"
	"github.com/docent-ai/docent/internal/session"
)

// ============================================================================
// Test doubles
// ============================================================================

type fakeHistory struct {
	msgs      []Message
	err       error
	gotLimit  int
	callCount int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]Message, error) {
	f.callCount++
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.msgs, nil
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	tpl, err := prompt.Default()
	if err != nil {
		t.Fatalf("loading default template: %v", err)
	}
	return session.New(session.ClientDiscord, tpl)
}

// ============================================================================
// Reconcile
// ============================================================================

func TestReconcileReplaysChronologicallyAndDropsCurrent(t *testing.T) {
	sess := newSession(t)
	seeded := sess.Len()

	// Newest first, as the platform returns them. "current" is the
	// in-flight message and must not be replayed.
	hist := &fakeHistory{msgs: []Message{
		{Content: "current"},
		{Content: "answer", FromBot: true},
		{Content: "question"},
	}}

	if err := Reconcile(context.Background(), sess, hist); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if hist.gotLimit != HistoryLimit {
		t.Errorf("Recent limit = %d, want %d", hist.gotLimit, HistoryLimit)
	}

	got := sess.History()[seeded:]
	if len(got) != 2 {
		t.Fatalf("appended %d messages, want 2", len(got))
	}
	if got[0].Content[0].Text != "question" || got[0].Role != ai.RoleUser {
		t.Errorf("first replayed = %q role %s, want question/user", got[0].Content[0].Text, got[0].Role)
	}
	if got[1].Content[0].Text != "answer" || got[1].Role != ai.RoleModel {
		t.Errorf("second replayed = %q role %s, want answer/model", got[1].Content[0].Text, got[1].Role)
	}
}

func TestReconcileEmptyContentFallsBackToChannelName(t *testing.T) {
	sess := newSession(t)
	seeded := sess.Len()

	hist := &fakeHistory{msgs: []Message{
		{Content: "current"},
		{Content: "", ChannelName: "general"},
	}}

	if err := Reconcile(context.Background(), sess, hist); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	got := sess.History()[seeded:]
	if len(got) != 1 {
		t.Fatalf("appended %d messages, want 1", len(got))
	}
	if got[0].Content[0].Text != "general" {
		t.Errorf("content = %q, want channel name fallback", got[0].Content[0].Text)
	}
}

func TestReconcileSingleMessageAppendsNothing(t *testing.T) {
	sess := newSession(t)
	seeded := sess.Len()

	hist := &fakeHistory{msgs: []Message{{Content: "current"}}}
	if err := Reconcile(context.Background(), sess, hist); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if sess.Len() != seeded {
		t.Errorf("session grew by %d messages, want 0", sess.Len()-seeded)
	}
}

func TestReconcileEmptyHistory(t *testing.T) {
	sess := newSession(t)
	seeded := sess.Len()

	if err := Reconcile(context.Background(), sess, &fakeHistory{}); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if sess.Len() != seeded {
		t.Errorf("session grew with empty history")
	}
}

func TestReconcileNilHistoryIsNoop(t *testing.T) {
	sess := newSession(t)
	seeded := sess.Len()

	if err := Reconcile(context.Background(), sess, nil); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if sess.Len() != seeded {
		t.Errorf("session grew with nil history")
	}
}

func TestReconcileFetchError(t *testing.T) {
	sess := newSession(t)
	seeded := sess.Len()

	fetchErr := errors.New("gateway down")
	err := Reconcile(context.Background(), sess, &fakeHistory{err: fetchErr})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Reconcile() error = %v, want wrapped fetch error", err)
	}
	if sess.Len() != seeded {
		t.Errorf("session mutated after failed fetch")
	}
}

// ============================================================================
// EncodeImages
// ============================================================================

func TestEncodeImages(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4e, 0x47}
	parts := EncodeImages([]Attachment{
		{ContentType: "image/png", Data: data},
		{ContentType: "text/plain", Data: []byte("notes")},
		{ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	})

	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2 (text attachment dropped)", len(parts))
	}

	wantURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	if parts[0].Text != wantURL {
		t.Errorf("media URL = %q, want %q", parts[0].Text, wantURL)
	}
	if parts[0].ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", parts[0].ContentType)
	}
	if !strings.HasPrefix(parts[1].Text, "data:image/jpeg;base64,") {
		t.Errorf("second part URL = %q, want jpeg data URL", parts[1].Text)
	}
}

func TestEncodeImagesCapsAtMax(t *testing.T) {
	var atts []Attachment
	for range MaxImages + 2 {
		atts = append(atts, Attachment{ContentType: "image/png", Data: []byte{1}})
	}

	parts := EncodeImages(atts)
	if len(parts) != MaxImages {
		t.Errorf("got %d parts, want %d", len(parts), MaxImages)
	}
}

func TestEncodeImagesNoAttachments(t *testing.T) {
	if parts := EncodeImages(nil); parts != nil {
		t.Errorf("got %v, want nil", parts)
	}
}

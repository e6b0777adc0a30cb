package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newRegistryOnlyService() *Service {
	return &Service{conversations: make(map[uuid.UUID]*conversation)}
}

func TestConversationLifecycle(t *testing.T) {
	s := newRegistryOnlyService()

	conv, err := s.CreateConversation(t.Context())
	if err != nil {
		t.Fatalf("CreateConversation returned error: %v", err)
	}
	if conv.ID == uuid.Nil {
		t.Fatal("conversation has no id")
	}

	history, err := s.GetHistory(t.Context(), conv.ID)
	if err != nil {
		t.Fatalf("GetHistory returned error: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("new conversation should have no messages, got %d", len(history))
	}

	if _, err := s.appendMessage(conv.ID, "user", "hello"); err != nil {
		t.Fatalf("appendMessage returned error: %v", err)
	}
	if _, err := s.appendMessage(conv.ID, "model", "hi there"); err != nil {
		t.Fatalf("appendMessage returned error: %v", err)
	}

	history, err = s.GetHistory(t.Context(), conv.ID)
	if err != nil {
		t.Fatalf("GetHistory returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d messages, want 2", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "model" {
		t.Errorf("messages out of order: %q then %q", history[0].Role, history[1].Role)
	}
	if history[0].ConversationID != conv.ID {
		t.Error("message not linked to its conversation")
	}
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	s := newRegistryOnlyService()

	first, _ := s.CreateConversation(t.Context())
	time.Sleep(5 * time.Millisecond)
	second, _ := s.CreateConversation(t.Context())
	time.Sleep(5 * time.Millisecond)

	// Activity on the first conversation bumps it back to the front.
	if _, err := s.appendMessage(first.ID, "user", "bump"); err != nil {
		t.Fatalf("appendMessage returned error: %v", err)
	}

	convs, err := s.ListConversations(t.Context())
	if err != nil {
		t.Fatalf("ListConversations returned error: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].ID != first.ID || convs[1].ID != second.ID {
		t.Errorf("conversations not ordered by activity: %v, %v", convs[0].ID, convs[1].ID)
	}
}

func TestUnknownConversation(t *testing.T) {
	s := newRegistryOnlyService()

	if _, err := s.GetHistory(t.Context(), uuid.New()); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("GetHistory: got %v, want ErrConversationNotFound", err)
	}
	if _, err := s.appendMessage(uuid.New(), "user", "hello"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("appendMessage: got %v, want ErrConversationNotFound", err)
	}
}

func TestSetTitle(t *testing.T) {
	s := newRegistryOnlyService()

	conv, _ := s.CreateConversation(t.Context())
	s.setTitle(conv.ID, "Go scheduler internals")

	convs, _ := s.ListConversations(t.Context())
	if convs[0].Title != "Go scheduler internals" {
		t.Errorf("got title %q, want the set title", convs[0].Title)
	}

	// Unknown ids are ignored.
	s.setTitle(uuid.New(), "orphan")
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short message", "what is pgvector", "what is pgvector"},
		{"long message truncated", "how does the go garbage collector handle large heaps", "how does the go garbage collector"},
		{"whitespace collapsed", "  spaced    out  ", "spaced out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fallbackTitle(tt.input); got != tt.want {
				t.Errorf("fallbackTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

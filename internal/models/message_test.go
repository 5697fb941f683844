package models

import (
	"testing"
	"time"
)

func TestTextContent(t *testing.T) {
	m := &Message{Parts: []Part{
		{Type: PartReasoning, Text: "thinking"},
		{Type: PartText, Text: "hello "},
		{Type: PartFile, URL: "/api/files/x"},
		{Type: PartText, Text: "world"},
	}}
	if got := m.TextContent(); got != "hello world" {
		t.Fatalf("expected 'hello world', got %q", got)
	}
}

func TestHasText(t *testing.T) {
	m := &Message{Parts: []Part{{Type: PartText, Text: ""}}}
	if m.HasText() {
		t.Fatal("empty text part should not count")
	}
	m.Parts = append(m.Parts, Part{Type: PartText, Text: "hi"})
	if !m.HasText() {
		t.Fatal("expected HasText")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Hour)}
	if s.Expired(now) {
		t.Fatal("session should still be valid")
	}
	if !s.Expired(now.Add(2 * time.Hour)) {
		t.Fatal("session should be expired")
	}
}

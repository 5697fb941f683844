package stream

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeSSEFraming(t *testing.T) {
	ev := Event{Type: EventTextDelta, Delta: "hi"}
	data, err := ev.EncodeSSE()
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "data: ") {
		t.Fatalf("expected data prefix, got %q", s)
	}
	if !strings.HasSuffix(s, "\n\n") {
		t.Fatalf("expected double newline terminator, got %q", s)
	}

	var decoded Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(s, "data: "))), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != EventTextDelta || decoded.Delta != "hi" {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestEncodeSSEOmitsEmptyFields(t *testing.T) {
	data, err := Event{Type: EventFinish}.EncodeSSE()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "delta") {
		t.Fatalf("empty fields should be omitted: %s", data)
	}
}

func TestTerminal(t *testing.T) {
	if !(Event{Type: EventFinish}).Terminal() {
		t.Fatal("finish should be terminal")
	}
	if !(Event{Type: EventError}).Terminal() {
		t.Fatal("error should be terminal")
	}
	if (Event{Type: EventTextDelta}).Terminal() {
		t.Fatal("text-delta should not be terminal")
	}
	if (Event{Type: EventFinishStep}).Terminal() {
		t.Fatal("finish-step should not be terminal")
	}
}

package websocket

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
)

func TestParseChatInput(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    string
		wantErr bool
	}{
		{name: "text field", frame: `{"text": "hello"}`, want: "hello"},
		{name: "message field", frame: `{"message": "  hi there "}`, want: "hi there"},
		{name: "text wins", frame: `{"text": "a", "message": "b"}`, want: "a"},
		{name: "empty", frame: `{"text": "   "}`, wantErr: true},
		{name: "no fields", frame: `{}`, wantErr: true},
		{name: "malformed", frame: `{"text":`, wantErr: true},
		{name: "not an object", frame: `"hello"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChatInput([]byte(tt.frame))
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChatInput failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}

	if _, err := ParseChatInput([]byte(`{"text": ""}`)); !errors.Is(err, errEmptyFrame) {
		t.Errorf("Expected errEmptyFrame, got %v", err)
	}
}

func TestEncodeTurnEvent(t *testing.T) {
	payload, err := EncodeTurnEvent(domain.TurnEvent{Emotion: "sad", Reply: "I'm here.", User: "rough day"})
	if err != nil {
		t.Fatalf("EncodeTurnEvent failed: %v", err)
	}

	var fields map[string]string
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("Unexpected payload %s: %v", payload, err)
	}
	if len(fields) != 3 || fields["emotion"] != "sad" || fields["reply"] != "I'm here." || fields["user"] != "rough day" {
		t.Errorf("Unexpected fields: %v", fields)
	}
}

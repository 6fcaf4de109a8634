package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
)

// errEmptyFrame is returned for well-formed frames that carry no text
var errEmptyFrame = errors.New("chat frame has no text")

// ParseChatInput extracts the trimmed text of an inbound chat frame.
// Both {"text": ...} and {"message": ...} are accepted.
func ParseChatInput(data []byte) (string, error) {
	var msg domain.ChatInputMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("invalid JSON format: %w", err)
	}

	text := strings.TrimSpace(msg.Content())
	if text == "" {
		return "", errEmptyFrame
	}
	return text, nil
}

// EncodeTurnEvent renders the frame sent to every listener
func EncodeTurnEvent(event domain.TurnEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode turn event: %w", err)
	}
	return payload, nil
}

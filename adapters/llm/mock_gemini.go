package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// MockLLM is an offline LargeLanguageModel for demos and tests
type MockLLM struct {
	// Err, when set, makes every SendMessage fail with ErrGenerationFailed.
	Err error
}

var _ repositories.LargeLanguageModel = (*MockLLM)(nil)

// NewMockLLM creates a new mock LLM
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// GenerateChat implements repositories.LargeLanguageModel
func (m *MockLLM) GenerateChat(ctx context.Context, history []repositories.ChatMessage) (repositories.ChatSession, error) {
	return &MockChatSession{
		err:     m.Err,
		history: append([]repositories.ChatMessage(nil), history...),
	}, nil
}

// MockChatSession implements repositories.ChatSession
type MockChatSession struct {
	err     error
	mu      sync.Mutex
	history []repositories.ChatMessage
}

// SendMessage implements repositories.ChatSession
func (m *MockChatSession) SendMessage(ctx context.Context, message repositories.ChatMessage) (repositories.ChatMessage, error) {
	if m.err != nil {
		return repositories.ChatMessage{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, m.err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, message)

	var response string
	switch text := strings.TrimSpace(message.Content); {
	case text == "":
		response = "I'm here whenever you want to talk."
	default:
		response = fmt.Sprintf("Thank you for sharing that with me. You said: %q. How are you feeling about it?", text)
	}

	responseMessage := repositories.ChatMessage{
		Role:    repositories.BotRole,
		Content: response,
	}
	m.history = append(m.history, responseMessage)

	return responseMessage, nil
}

// History implements repositories.ChatSession
func (m *MockChatSession) History() ([]repositories.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repositories.ChatMessage(nil), m.history...), nil
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// GeminiChatSession implements the ChatSession interface.
// History lives in memory for the life of the session.
type GeminiChatSession struct {
	llm    *GeminiLLM
	logger *zap.Logger

	mu      sync.Mutex
	history []*genai.Content
}

var _ repositories.ChatSession = (*GeminiChatSession)(nil)

// NewGeminiChatSession creates a new chat session seeded with history
func NewGeminiChatSession(llm *GeminiLLM, history []repositories.ChatMessage) *GeminiChatSession {
	return &GeminiChatSession{
		llm:     llm,
		logger:  llm.logger,
		history: convertRepositoryToGeminiFormat(history),
	}
}

// SendMessage sends a message and gets a response, updating the history.
// Failures wrap domain.ErrGenerationFailed and leave the history unchanged.
func (s *GeminiChatSession) SendMessage(ctx context.Context, message repositories.ChatMessage) (repositories.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userContent := genai.NewContentFromText(message.Content, genai.RoleUser)
	contents := make([]*genai.Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, userContent)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.llm.config.TimeoutSeconds)*time.Second)
	defer cancel()

	text, err := s.llm.generate(ctx, contents)
	if err != nil {
		s.logger.Error("Failed to send message in chat session", zap.Error(err))
		return repositories.ChatMessage{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	text = strings.TrimSpace(text)
	s.history = append(s.history, userContent, genai.NewContentFromText(text, genai.RoleModel))

	s.logger.Debug("Chat session message processed",
		zap.String("userMessage", preview(message.Content)),
		zap.String("responsePreview", preview(text)),
		zap.Int("historyLength", len(s.history)))

	return repositories.ChatMessage{Role: repositories.BotRole, Content: text}, nil
}

// History returns the current conversation history
func (s *GeminiChatSession) History() ([]repositories.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return convertGeminiToRepositoryFormat(s.history), nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > 50 {
		return string(r[:50])
	}
	return s
}

// convertRepositoryToGeminiFormat converts repository messages to Gemini format
func convertRepositoryToGeminiFormat(messages []repositories.ChatMessage) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range messages {
		var role genai.Role
		switch msg.Role {
		case repositories.BotRole:
			role = genai.RoleModel
		default:
			// Gemini has no system role in history
			role = genai.RoleUser
		}

		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	return contents
}

// convertGeminiToRepositoryFormat converts Gemini content to repository messages
func convertGeminiToRepositoryFormat(contents []*genai.Content) []repositories.ChatMessage {
	var messages []repositories.ChatMessage

	for _, content := range contents {
		role := repositories.UserRole
		if content.Role == string(genai.RoleModel) {
			role = repositories.BotRole
		}

		var text string
		for _, part := range content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}

		if text != "" {
			messages = append(messages, repositories.ChatMessage{
				Role:    role,
				Content: text,
			})
		}
	}

	return messages
}

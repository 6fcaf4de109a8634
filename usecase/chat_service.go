package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// ChatService keeps one chat session for the life of the process
type ChatService struct {
	llm    repositories.LargeLanguageModel
	logger *zap.Logger

	mu      sync.Mutex
	session repositories.ChatSession
}

var _ repositories.TextGenerator = (*ChatService)(nil)

// NewChatService creates a new chat service
func NewChatService(llm repositories.LargeLanguageModel, logger *zap.Logger) *ChatService {
	return &ChatService{llm: llm, logger: logger.Named("chat")}
}

// Reply sends userText on the shared session and returns the reply text
func (s *ChatService) Reply(ctx context.Context, userText string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		session, err := s.llm.GenerateChat(ctx, nil)
		if err != nil {
			return "", fmt.Errorf("%w: failed to start chat session: %v", domain.ErrGenerationFailed, err)
		}
		s.session = session
	}

	response, err := s.session.SendMessage(ctx, repositories.ChatMessage{
		Role:    repositories.UserRole,
		Content: userText,
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug("Reply generated", zap.Int("length", len(response.Content)))
	return response.Content, nil
}

// History returns the conversation so far, or nil before the first reply
func (s *ChatService) History() ([]repositories.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, nil
	}
	return s.session.History()
}

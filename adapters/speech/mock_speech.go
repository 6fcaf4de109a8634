package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// MockSpeaker stands in for real playback. It logs each line and pretends to
// speak for Delay per word.
type MockSpeaker struct {
	Delay  time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	spoken []string
	closed bool
}

var _ repositories.Speaker = (*MockSpeaker)(nil)

// NewMockSpeaker creates a new mock speaker
func NewMockSpeaker(logger *zap.Logger) *MockSpeaker {
	return &MockSpeaker{logger: logger.Named("speech")}
}

// Speak implements repositories.Speaker
func (s *MockSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.logger.Info("Speaking", zap.Int("textLength", len(text)))

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay * time.Duration(len(strings.Fields(text))))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	return nil
}

// Spoken returns every line spoken so far, in order
func (s *MockSpeaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

// Closed reports whether Close was called
func (s *MockSpeaker) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close implements repositories.Speaker
func (s *MockSpeaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

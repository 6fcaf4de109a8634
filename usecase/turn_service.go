package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/entities"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// Default user-over-reply thresholds for the console and web front ends
const (
	DefaultAvatarThreshold = 0.35
	DefaultWebThreshold    = 0.2
)

// Output receives the user-visible lines of a turn
type Output interface {
	Bot(line string)
	Warn(format string, args ...any)
}

// Decorator rewrites the displayed reply for the chosen emotion
type Decorator func(text string, emotion entities.Emotion) string

// TurnConfig wires the collaborators of one front end.
// Avatar, Speech, Decorate and Publishers are optional.
type TurnConfig struct {
	Generator  repositories.TextGenerator
	Classifier repositories.EmotionClassifier
	Avatar     repositories.AvatarController
	Speech     *SpeechQueue
	Output     Output
	Decorate   Decorator
	Publishers []repositories.TurnPublisher
	Threshold  float64
}

// TurnService runs one user turn end to end
type TurnService struct {
	config TurnConfig
	logger *zap.Logger

	avatarReady atomic.Bool
}

// NewTurnService creates a turn service. The avatar starts out ready when one is given.
func NewTurnService(config TurnConfig, logger *zap.Logger) (*TurnService, error) {
	if config.Generator == nil {
		return nil, fmt.Errorf("text generator is required")
	}
	if config.Classifier == nil {
		return nil, fmt.Errorf("emotion classifier is required")
	}
	if config.Output == nil {
		return nil, fmt.Errorf("output is required")
	}
	if config.Threshold < 0 || config.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %v", config.Threshold)
	}

	s := &TurnService{config: config, logger: logger.Named("turn")}
	s.avatarReady.Store(config.Avatar != nil)
	return s, nil
}

// SelectEmotion prefers the user's emotion when it is at least threshold strong
func SelectEmotion(user, reply entities.EmotionScore, threshold float64) entities.EmotionScore {
	if math.Abs(user.Score) >= threshold {
		return user
	}
	return reply
}

// ProcessTurn generates a reply, drives the avatar, prints and broadcasts the
// result, and queues speech. Only a generation failure is returned.
func (s *TurnService) ProcessTurn(ctx context.Context, userText string) (*entities.ConversationTurn, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, domain.ErrEmptyInput
	}

	turn := &entities.ConversationTurn{UserText: userText, StartedAt: time.Now()}

	reply, err := s.config.Generator.Reply(ctx, userText)
	if err != nil {
		return nil, err
	}
	turn.ReplyText = reply

	turn.User = s.config.Classifier.Classify(userText)
	turn.Reply = s.config.Classifier.Classify(reply)
	turn.Emotion = SelectEmotion(turn.User, turn.Reply, s.config.Threshold)

	s.applyEmotion(ctx, turn.Emotion.Label)

	display := reply
	if s.config.Decorate != nil {
		display = s.config.Decorate(reply, turn.Emotion.Label)
	}
	s.config.Output.Bot(turn.BotLine(display))

	s.publish(ctx, domain.TurnEvent{
		Emotion: turn.Emotion.Label.String(),
		Reply:   reply,
		User:    userText,
	})

	if s.config.Speech != nil {
		s.config.Speech.Enqueue(reply)
	}

	turn.Duration = time.Since(turn.StartedAt)
	s.logger.Info("Turn completed",
		zap.String("emotion", turn.Emotion.Label.String()),
		zap.Float64("score", turn.Emotion.Score),
		zap.Float64("userScore", turn.User.Score),
		zap.Float64("replyScore", turn.Reply.Score),
		zap.Duration("duration", turn.Duration))

	return turn, nil
}

func (s *TurnService) applyEmotion(ctx context.Context, emotion entities.Emotion) {
	if !s.AvatarReady() {
		return
	}

	if err := s.config.Avatar.ApplyEmotion(ctx, emotion); err != nil {
		s.logger.Warn("Failed to apply avatar expression", zap.String("emotion", emotion.String()), zap.Error(err))
		s.config.Output.Warn("Failed to trigger avatar expression: %v", err)
		s.config.Output.Warn("The chat will continue without avatar expressions.")
		s.DisableAvatar()
	}
}

func (s *TurnService) publish(ctx context.Context, event domain.TurnEvent) {
	for _, publisher := range s.config.Publishers {
		if err := publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish turn", zap.Error(err))
		}
	}
}

// AvatarReady reports whether turns still drive the avatar
func (s *TurnService) AvatarReady() bool {
	return s.config.Avatar != nil && s.avatarReady.Load()
}

// DisableAvatar stops avatar calls for the rest of the process
func (s *TurnService) DisableAvatar() {
	s.avatarReady.Store(false)
}

package repositories

import (
	"context"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/entities"
)

// AvatarController drives the expression of a remote avatar.
type AvatarController interface {
	// Connect opens and authenticates the session.
	Connect(ctx context.Context) error
	// ApplyEmotion switches the avatar to the expression mapped for the emotion.
	// Unmapped or unknown expressions are a no-op.
	ApplyEmotion(ctx context.Context, emotion entities.Emotion) error
	// Close is idempotent and safe on a session that never connected.
	Close(ctx context.Context) error
}

// EmotionClassifier maps free text to one emotion and a score in [-1, 1].
type EmotionClassifier interface {
	Classify(text string) entities.EmotionScore
}

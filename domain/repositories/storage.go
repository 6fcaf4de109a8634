package repositories

import (
	"context"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
)

// TokenStore keeps the avatar host's authentication token between runs.
// Load returns an empty string and no error when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// TurnPublisher delivers a finished turn to display listeners.
type TurnPublisher interface {
	Publish(ctx context.Context, event domain.TurnEvent) error
}

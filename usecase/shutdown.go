package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// Default bound on each shutdown step
const (
	DefaultCloseTimeout = 5 * time.Second
	DefaultDrainTimeout = 5 * time.Second
)

type releaser struct {
	name string
	fn   func() error
}

// ShutdownCoordinator tears the process down in bounded time. Every step is
// best effort; failures are logged and never returned.
type ShutdownCoordinator struct {
	avatar       repositories.AvatarController
	speech       *SpeechQueue
	speaker      repositories.Speaker
	closeTimeout time.Duration
	drainTimeout time.Duration
	releasers    []releaser
	logger       *zap.Logger
}

// NewShutdownCoordinator creates a coordinator. Any collaborator may be nil.
func NewShutdownCoordinator(
	avatar repositories.AvatarController,
	speech *SpeechQueue,
	speaker repositories.Speaker,
	closeTimeout, drainTimeout time.Duration,
	logger *zap.Logger,
) *ShutdownCoordinator {
	if closeTimeout <= 0 {
		closeTimeout = DefaultCloseTimeout
	}
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}
	return &ShutdownCoordinator{
		avatar:       avatar,
		speech:       speech,
		speaker:      speaker,
		closeTimeout: closeTimeout,
		drainTimeout: drainTimeout,
		logger:       logger.Named("shutdown"),
	}
}

// OnShutdown registers an extra resource released after the speaker, in order.
// Releasers share whatever time the earlier steps left unspent; one still
// running when that runs out is abandoned, not waited for.
func (c *ShutdownCoordinator) OnShutdown(name string, fn func() error) {
	c.releasers = append(c.releasers, releaser{name: name, fn: fn})
}

// Shutdown closes the avatar session, drains speech and releases resources.
// It returns within closeTimeout + drainTimeout.
func (c *ShutdownCoordinator) Shutdown(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	deadline := time.Now().Add(c.closeTimeout + c.drainTimeout)

	if c.avatar != nil {
		c.closeAvatar(ctx)
	}

	if c.speech != nil {
		drainCtx, cancel := context.WithTimeout(ctx, c.drainTimeout)
		if err := c.speech.Shutdown(drainCtx); err != nil {
			c.logger.Warn("Speech tasks did not settle in time",
				zap.Int("pending", c.speech.Pending()),
				zap.Error(err))
		}
		cancel()
	}

	c.release(time.Until(deadline))

	c.logger.Info("Shutdown complete")
}

// release closes the speaker and runs the releasers in order, waiting at most budget
func (c *ShutdownCoordinator) release(budget time.Duration) {
	if c.speaker == nil && len(c.releasers) == 0 {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if c.speaker != nil {
			if err := c.speaker.Close(); err != nil {
				c.logger.Warn("Failed to close speaker", zap.Error(err))
			}
		}
		for _, r := range c.releasers {
			if err := r.fn(); err != nil {
				c.logger.Warn("Failed to release resource", zap.String("resource", r.name), zap.Error(err))
			}
		}
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		c.logger.Warn("Releasing resources timed out", zap.Duration("budget", budget))
	}
}

// closeAvatar does not wait past the timeout even if Close ignores its context
func (c *ShutdownCoordinator) closeAvatar(ctx context.Context) {
	closeCtx, cancel := context.WithTimeout(ctx, c.closeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.avatar.Close(closeCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			c.logger.Warn("Failed to close avatar session", zap.Error(err))
		}
	case <-closeCtx.Done():
		c.logger.Warn("Avatar session close timed out", zap.Duration("timeout", c.closeTimeout))
	}
}

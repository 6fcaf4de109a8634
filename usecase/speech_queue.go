package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// SpeechQueue speaks replies in the background, one at a time and in enqueue order.
type SpeechQueue struct {
	speaker repositories.Speaker
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	tail    chan struct{}
	closed  bool
	pending atomic.Int32
}

// NewSpeechQueue creates a queue in front of speaker
func NewSpeechQueue(speaker repositories.Speaker, logger *zap.Logger) *SpeechQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &SpeechQueue{
		speaker: speaker,
		logger:  logger.Named("speech"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Enqueue schedules text and returns immediately. It is a no-op after Shutdown.
func (q *SpeechQueue) Enqueue(text string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Debug("Speech queue closed, dropping text")
		return
	}

	prev := q.tail
	done := make(chan struct{})
	q.tail = done

	q.pending.Add(1)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer q.pending.Add(-1)
		defer close(done)

		if prev != nil {
			select {
			case <-prev:
			case <-q.ctx.Done():
				return
			}
		}
		if q.ctx.Err() != nil {
			return
		}

		if err := q.speaker.Speak(q.ctx, text); err != nil {
			if errors.Is(err, context.Canceled) {
				q.logger.Debug("Speech cancelled")
				return
			}
			q.logger.Warn("Speech failed", zap.Error(err))
		}
	}()
}

// Pending returns the number of tasks that have not finished
func (q *SpeechQueue) Pending() int {
	return int(q.pending.Load())
}

// Shutdown cancels every unfinished task and waits for them to settle until ctx ends.
func (q *SpeechQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cancel()

	settled := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(settled)
	}()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

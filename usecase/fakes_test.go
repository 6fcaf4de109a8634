package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/entities"
)

type fakeGenerator struct {
	reply string
	err   error
	calls atomic.Int32
}

func (g *fakeGenerator) Reply(ctx context.Context, userText string) (string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type fixedClassifier map[string]entities.EmotionScore

func (c fixedClassifier) Classify(text string) entities.EmotionScore {
	if score, ok := c[text]; ok {
		return score
	}
	return entities.EmotionScore{Label: entities.EmotionNeutral}
}

type fakeAvatar struct {
	mu       sync.Mutex
	applied  []entities.Emotion
	applyErr error
	closeErr error
	hang     chan struct{}
	closed   int
}

func (a *fakeAvatar) Connect(ctx context.Context) error { return nil }

func (a *fakeAvatar) ApplyEmotion(ctx context.Context, emotion entities.Emotion) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = append(a.applied, emotion)
	return a.applyErr
}

func (a *fakeAvatar) Close(ctx context.Context) error {
	if a.hang != nil {
		<-a.hang
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed++
	return a.closeErr
}

func (a *fakeAvatar) appliedEmotions() []entities.Emotion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]entities.Emotion(nil), a.applied...)
}

type fakeOutput struct {
	mu    sync.Mutex
	bots  []string
	warns []string
	lines []string
}

func (o *fakeOutput) Bot(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bots = append(o.bots, line)
}

func (o *fakeOutput) Warn(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.warns = append(o.warns, fmt.Sprintf(format, args...))
}

func (o *fakeOutput) Println(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, text)
}

func (o *fakeOutput) botLines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.bots...)
}

func (o *fakeOutput) warnings() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.warns...)
}

// scriptedConsole replays lines, then reports io.EOF
type scriptedConsole struct {
	fakeOutput
	inputs []string
}

func (c *scriptedConsole) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inputs) == 0 {
		return "", io.EOF
	}
	line := c.inputs[0]
	c.inputs = c.inputs[1:]
	return line, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.TurnEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.TurnEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

// trackingSpeaker records order and the peak number of overlapping Speak calls
type trackingSpeaker struct {
	delay      time.Duration
	ignoreCtx  bool
	release    chan struct{}
	active     atomic.Int32
	peak       atomic.Int32
	closeCalls atomic.Int32

	mu     sync.Mutex
	spoken []string
}

func (s *trackingSpeaker) Speak(ctx context.Context, text string) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if s.release != nil {
		if s.ignoreCtx {
			<-s.release
		} else {
			select {
			case <-s.release:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *trackingSpeaker) Close() error {
	s.closeCalls.Add(1)
	return errors.New("speaker already gone")
}

func (s *trackingSpeaker) spokenLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
	return true
}

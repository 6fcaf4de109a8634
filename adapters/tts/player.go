package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

const defaultPlayer = "ffplay"

// Reads encoded audio from stdin and exits when playback ends.
var defaultPlayerArgs = []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-i", "-"}

// errSpeakerClosed is returned by Speak after Close
var errSpeakerClosed = errors.New("speaker closed")

// PlayerConfig selects the external audio player
type PlayerConfig struct {
	Command string
	Args    []string
}

// PlayerSpeaker synthesizes text and pipes the audio into an external player process.
// Cancelling ctx kills the player.
type PlayerSpeaker struct {
	tts     repositories.TextToSpeech
	command string
	args    []string
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

var _ repositories.Speaker = (*PlayerSpeaker)(nil)

// NewPlayerSpeaker creates a speaker that plays tts output through the configured player
func NewPlayerSpeaker(tts repositories.TextToSpeech, config PlayerConfig, logger *zap.Logger) (*PlayerSpeaker, error) {
	logger = logger.Named("player")

	command := config.Command
	args := config.Args
	if command == "" {
		command = defaultPlayer
		logger.Info("Using default audio player", zap.String("player", command))
	}
	if args == nil && command == defaultPlayer {
		args = defaultPlayerArgs
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("audio player %q not found: %w", command, err)
	}

	return &PlayerSpeaker{
		tts:     tts,
		command: command,
		args:    args,
		logger:  logger,
	}, nil
}

// Speak blocks until the audio for text has finished playing. Empty text is a no-op.
func (p *PlayerSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return errSpeakerClosed
	}

	audio, err := p.tts.ConvertTextToSpeech(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrSynthesisFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrSynthesisFailed, err)
	}

	cmd := exec.CommandContext(ctx, p.command, p.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		drain(audio)
		return fmt.Errorf("failed to open player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		drain(audio)
		return fmt.Errorf("failed to start audio player: %w", err)
	}

	written, writeErr := feed(stdin, audio)
	stdin.Close()
	drain(audio)

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write audio to player: %w", writeErr)
	}
	if waitErr != nil {
		return fmt.Errorf("audio player failed: %w", waitErr)
	}

	p.logger.Debug("Finished playback", zap.Int("bytes", written))
	return nil
}

// Close marks the speaker unusable. Running playback is stopped through its ctx.
func (p *PlayerSpeaker) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func feed(w io.Writer, audio <-chan []byte) (int, error) {
	total := 0
	for chunk := range audio {
		n, err := w.Write(chunk)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// drain consumes the rest of the stream so the producer can exit
func drain(audio <-chan []byte) {
	for range audio {
	}
}

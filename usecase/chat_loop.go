package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Goodbye is printed when the user leaves
const Goodbye = "Goodbye!"

// LineConsole is the interactive side of the chat loop
type LineConsole interface {
	ReadLine(ctx context.Context) (string, error)
	Println(text string)
	Warn(format string, args ...any)
}

// IsExitCommand reports whether input ends the conversation
func IsExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}

// ChatLoop reads user lines and runs a turn for each until exit, EOF or ctx ends
type ChatLoop struct {
	console LineConsole
	turns   *TurnService
	logger  *zap.Logger
}

// NewChatLoop creates a chat loop
func NewChatLoop(console LineConsole, turns *TurnService, logger *zap.Logger) *ChatLoop {
	return &ChatLoop{console: console, turns: turns, logger: logger.Named("loop")}
}

// Run blocks until the conversation ends. A failed turn returns to the prompt.
func (l *ChatLoop) Run(ctx context.Context) error {
	for {
		input, err := l.console.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if IsExitCommand(input) {
			l.console.Println(Goodbye)
			return nil
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		if _, err := l.turns.ProcessTurn(ctx, input); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("Turn failed", zap.Error(err))
			l.console.Warn("Could not get a reply: %v", err)
		}
	}
}

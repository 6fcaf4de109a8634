package usecase

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
)

func newLoop(t *testing.T, console *scriptedConsole, generator *fakeGenerator) *ChatLoop {
	turns, err := NewTurnService(TurnConfig{
		Generator:  generator,
		Classifier: fixedClassifier{},
		Output:     console,
		Threshold:  DefaultAvatarThreshold,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewTurnService failed: %v", err)
	}
	return NewChatLoop(console, turns, zaptest.NewLogger(t))
}

func TestIsExitCommand(t *testing.T) {
	for input, want := range map[string]bool{
		"exit":      true,
		"  EXIT  ":  true,
		"Quit":      true,
		"quit\t":    true,
		"exit now":  false,
		"":          false,
		"goodbye":   false,
	} {
		if got := IsExitCommand(input); got != want {
			t.Errorf("IsExitCommand(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestChatLoop_ExitPrintsGoodbye(t *testing.T) {
	console := &scriptedConsole{inputs: []string{"hello", "", "  EXIT  ", "never read"}}
	generator := &fakeGenerator{reply: "hi there"}

	if err := newLoop(t, console, generator).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if generator.calls.Load() != 1 {
		t.Errorf("Expected one turn, got %d", generator.calls.Load())
	}
	if len(console.lines) != 1 || console.lines[0] != Goodbye {
		t.Errorf("Expected goodbye line, got %v", console.lines)
	}
	if len(console.inputs) != 1 {
		t.Error("Expected the loop to stop reading after exit")
	}
}

func TestChatLoop_RecoversFromGenerationFailure(t *testing.T) {
	console := &scriptedConsole{inputs: []string{"first", "second"}}
	generator := &fakeGenerator{err: domain.ErrGenerationFailed}

	if err := newLoop(t, console, generator).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if generator.calls.Load() != 2 {
		t.Errorf("Expected both lines to be tried, got %d", generator.calls.Load())
	}
	if len(console.warnings()) != 2 {
		t.Errorf("Expected a warning per failed turn, got %v", console.warnings())
	}
}

func TestChatLoop_StopsOnCancel(t *testing.T) {
	console := &scriptedConsole{inputs: []string{"hello"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := newLoop(t, console, &fakeGenerator{reply: "hi"}).Run(ctx); err != nil {
		t.Errorf("Expected clean stop on cancel, got %v", err)
	}
}

package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestConsoleOutput(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out)

	c.Info("Save this token as %s", "VTS_AUTH_TOKEN")
	c.Warn("avatar disabled")
	c.Bot("Bot [angry | -0.69]: Sorry to hear that.")
	c.User("hello")

	want := "[info] Save this token as VTS_AUTH_TOKEN\n" +
		"[warn] avatar disabled\n" +
		"Bot [angry | -0.69]: Sorry to hear that.\n" +
		"User: hello\n"
	if out.String() != want {
		t.Errorf("Unexpected output:\n%q\nwant\n%q", out.String(), want)
	}
}

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("hello there\n  exit  \n"), &out)
	ctx := context.Background()

	first, err := c.ReadLine(ctx)
	if err != nil || first != "hello there" {
		t.Fatalf("Expected first line, got %q, %v", first, err)
	}
	second, err := c.ReadLine(ctx)
	if err != nil || second != "  exit  " {
		t.Fatalf("Expected second line, got %q, %v", second, err)
	}
	if _, err := c.ReadLine(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
	if !strings.HasPrefix(out.String(), Prompt+Prompt) {
		t.Errorf("Expected prompts in output, got %q", out.String())
	}
}

func TestReadLineCancelled(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	c := New(reader, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := c.ReadLine(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("ReadLine did not return promptly on cancellation")
	}
}

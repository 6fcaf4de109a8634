// Package console renders the interactive prompt and the bot's lines.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Prompt is printed before every user input
const Prompt = "You: "

type line struct {
	text string
	err  error
}

// Console is the user-facing side of the process. Diagnostics go to the logger instead.
type Console struct {
	out io.Writer
	in  *bufio.Scanner

	infoStyle lipgloss.Style
	warnStyle lipgloss.Style
	userStyle lipgloss.Style
	botStyle  lipgloss.Style

	mu    sync.Mutex
	once  sync.Once
	lines chan line
}

// New creates a console. Styles degrade to plain text when out is not a terminal.
func New(in io.Reader, out io.Writer) *Console {
	renderer := lipgloss.NewRenderer(out)
	return &Console{
		out:       out,
		in:        bufio.NewScanner(in),
		infoStyle: renderer.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		warnStyle: renderer.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		userStyle: renderer.NewStyle().Foreground(lipgloss.Color("245")),
		botStyle:  renderer.NewStyle().Foreground(lipgloss.Color("212")),
	}
}

// Info prints an "[info]" notice
func (c *Console) Info(format string, args ...any) {
	c.println(c.infoStyle.Render("[info]") + " " + fmt.Sprintf(format, args...))
}

// Warn prints a "[warn]" notice
func (c *Console) Warn(format string, args ...any) {
	c.println(c.warnStyle.Render("[warn]") + " " + fmt.Sprintf(format, args...))
}

// Bot prints a rendered bot line
func (c *Console) Bot(text string) {
	c.println(c.botStyle.Render(text))
}

// User echoes a user line received from somewhere other than the prompt
func (c *Console) User(text string) {
	c.println(c.userStyle.Render("User: " + text))
}

// Println prints a plain line
func (c *Console) Println(text string) {
	c.println(text)
}

// ReadLine prints the prompt and waits for one line of input.
// It returns ctx.Err() when ctx ends first and io.EOF when input is exhausted.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	c.once.Do(c.startReader)

	c.mu.Lock()
	fmt.Fprint(c.out, Prompt)
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		c.println("")
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

// startReader scans input on its own goroutine so a blocked read never holds up shutdown
func (c *Console) startReader() {
	c.lines = make(chan line)
	go func() {
		defer close(c.lines)
		for c.in.Scan() {
			c.lines <- line{text: c.in.Text()}
		}
		if err := c.in.Err(); err != nil {
			c.lines <- line{err: err}
		}
	}()
}

func (c *Console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

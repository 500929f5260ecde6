package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Terminal prints one styled line per notification. Colour is chosen from
// the writer's capabilities, so redirected output stays plain.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	styles map[Level]lipgloss.Style
}

// NewTerminal creates a Notifier writing to w.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w: w,
		styles: map[Level]lipgloss.Style{
			LevelSuccess: r.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Bold(true),
			LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("#8BE9FD")),
			LevelError:   r.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true),
		},
	}
}

var icons = map[Level]string{
	LevelSuccess: "✓",
	LevelInfo:    "•",
	LevelError:   "✗",
}

func (t *Terminal) Success(msg string) { t.print(LevelSuccess, msg) }
func (t *Terminal) Info(msg string)    { t.print(LevelInfo, msg) }
func (t *Terminal) Error(msg string)   { t.print(LevelError, msg) }

func (t *Terminal) print(level Level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.w, "%s %s\n", t.styles[level].Render(icons[level]), msg)
}

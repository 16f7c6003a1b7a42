// Package render presents quotes to a terminal or as an HTML fragment.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// DefaultTerminalWidth is the wrap width used when Terminal.Width is unset.
const DefaultTerminalWidth = 72

var (
	accent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#8E8CF5"}
	muted  = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#9B9B9B"}
)

// Terminal renders a quote as a bordered block quote with its category as a
// caption. Colors degrade to plain text when the writer is not a terminal.
type Terminal struct {
	// Width is the total block width, border included.
	Width int
}

var _ ports.Renderer = Terminal{}

// Render writes quote, or the empty state when quote is nil.
func (t Terminal) Render(w io.Writer, quote *domain.Quote) error {
	r := lipgloss.NewRenderer(w)

	width := t.Width
	if width <= 0 {
		width = DefaultTerminalWidth
	}

	if quote == nil {
		empty := r.NewStyle().Foreground(muted).Italic(true).Width(width)
		_, err := fmt.Fprintln(w, empty.Render(domain.EmptyMessage))

		return err
	}

	body := r.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(accent).
		PaddingLeft(1).
		Width(width - 1)

	text := r.NewStyle().Italic(true).Render("“" + quote.Text + "”")
	caption := r.NewStyle().Foreground(muted).Render("— " + quote.Category)

	_, err := fmt.Fprintln(w, body.Render(lipgloss.JoinVertical(lipgloss.Left, text, caption)))

	return err
}

// StatusLine formats a transient status message for terminal output.
func StatusLine(w io.Writer, msg ports.StatusMessage) error {
	r := lipgloss.NewRenderer(w)

	color := lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}

	switch msg.Level {
	case ports.StatusWarning:
		color = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFB74D"}
	case ports.StatusError:
		color = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}
	}

	label := r.NewStyle().Bold(true).Foreground(color).Render(string(msg.Level))
	_, err := fmt.Fprintf(w, "%s %s\n", label, msg.Message)

	return err
}

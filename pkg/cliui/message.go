package cliui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/costwise/costwise/pkg/transcript"
)

// Renderer turns transcript messages into terminal text.
type Renderer struct {
	// Markdown enables glamour rendering of assistant text. Disable it when
	// stdout is not a terminal.
	Markdown bool

	// HideTools suppresses tool call and tool message lines (clean mode).
	HideTools bool

	// Width is the wrap width. Zero disables wrapping of plain text.
	Width int
}

// Render returns the display form of m, or "" when m is hidden.
func (r Renderer) Render(m transcript.Message) string {
	switch {
	case m.Role == transcript.RoleUser:
		return UserStyle.Render("you ›") + " " + m.Content + "\n"

	case m.Role == transcript.RoleTool || transcript.IsToolText(m.Content):
		if r.HideTools {
			return ""
		}
		return ToolStyle.Render(m.Content) + "\n"
	}

	if !r.Markdown {
		text := strings.TrimRight(m.Content, "\n")
		if r.Width > 0 {
			text = ansi.Wordwrap(text, r.Width, "")
		}
		return text + "\n"
	}

	out, err := RenderMarkdown(m.Content, r.Width)
	if err != nil {
		return m.Content + "\n"
	}
	return out
}

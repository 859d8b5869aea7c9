// Package cli hosts the interactive terminal frontend: a renderer that
// styles agent events and an App that drives the read-eval loop over the
// event stream.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan   = lipgloss.Color("#00D7FF")
	colorGray   = lipgloss.Color("#6C6C6C")
	colorGreen  = lipgloss.Color("#00FF87")
	colorYellow = lipgloss.Color("#FFD75F")
	colorRed    = lipgloss.Color("#FF5F5F")
)

// Renderer styles agent events for the terminal. Markdown goes through
// glamour; everything else is lipgloss-styled line fragments.
type Renderer struct {
	markdown *glamour.TermRenderer
	width    int
	plain    bool
}

// NewRenderer builds a renderer for the given terminal width. Plain mode
// skips all styling, for piped output.
func NewRenderer(width int, plain bool) *Renderer {
	if width <= 0 {
		width = 80
	}
	var md *glamour.TermRenderer
	if !plain {
		md, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width-4),
		)
	}
	return &Renderer{markdown: md, width: width, plain: plain}
}

// Markdown renders assistant text. Falls back to the raw string when
// styling is unavailable.
func (r *Renderer) Markdown(text string) string {
	if r.plain || r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

// TurnStart renders the turn counter line.
func (r *Renderer) TurnStart(turn, maxTurns int) string {
	line := fmt.Sprintf("— turn %d/%d —", turn, maxTurns)
	if r.plain {
		return line
	}
	return lipgloss.NewStyle().Foreground(colorGray).Render(line)
}

// ToolExecuting renders the in-progress line for one tool execution.
func (r *Renderer) ToolExecuting(name string, args map[string]interface{}) string {
	summary := summarizeArgs(args)
	if r.plain {
		return fmt.Sprintf("  * %s %s", name, summary)
	}
	icon := lipgloss.NewStyle().Foreground(colorYellow).Bold(true).Render("◆")
	styled := lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Render(name)
	return fmt.Sprintf("  %s %s %s", icon, styled,
		lipgloss.NewStyle().Foreground(colorGray).Render(summary))
}

// ToolResult renders the completion line for one tool execution.
func (r *Renderer) ToolResult(name string, success bool) string {
	if r.plain {
		mark := "ok"
		if !success {
			mark = "failed"
		}
		return fmt.Sprintf("  %s: %s", name, mark)
	}
	var icon string
	if success {
		icon = lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	} else {
		icon = lipgloss.NewStyle().Foreground(colorRed).Render("✗")
	}
	return fmt.Sprintf("  %s %s", icon,
		lipgloss.NewStyle().Foreground(colorCyan).Render(name))
}

// Error renders a fatal agent error.
func (r *Renderer) Error(message string) string {
	line := "Error: " + message
	if r.plain {
		return line
	}
	return lipgloss.NewStyle().Foreground(colorRed).Bold(true).Render(line)
}

// Thinking renders a dimmed reasoning fragment.
func (r *Renderer) Thinking(content string) string {
	if r.plain {
		return content
	}
	return lipgloss.NewStyle().Foreground(colorGray).Italic(true).Render(content)
}

// Welcome renders the session banner.
func (r *Renderer) Welcome(model, persona string, toolCount int) string {
	if r.plain {
		return fmt.Sprintf("model=%s persona=%s tools=%d", model, persona, toolCount)
	}
	title := lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Render("vscode-cli")
	meta := lipgloss.NewStyle().Foreground(colorGray).Render(
		fmt.Sprintf("%s · persona %s · %d tools", model, persona, toolCount))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Padding(0, 1)
	return box.Render(title + "\n" + meta)
}

// summarizeArgs picks the most informative argument values for a compact
// one-line display.
func summarizeArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return ""
	}

	priority := []string{"command", "path", "pattern", "query", "key", "message"}
	var parts []string
	for _, key := range priority {
		if v, ok := args[key]; ok {
			parts = append(parts, truncate(fmt.Sprintf("%v", v), 60))
		}
	}
	if len(parts) == 0 {
		for _, v := range args {
			parts = append(parts, truncate(fmt.Sprintf("%v", v), 60))
			break
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

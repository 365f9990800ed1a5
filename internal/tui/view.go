package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current state of the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.viewport.View(), m.status())
}

func (m Model) header() string {
	page, ok := m.Current()
	if !ok {
		return titleStyle.Render("Documents")
	}
	return titleStyle.Render(page.Title)
}

func (m Model) status() string {
	position := fmt.Sprintf("%d/%d", m.current+1, len(m.pages))
	if len(m.pages) == 0 {
		position = "0/0"
	}
	scrolled := 100
	if m.ready {
		scrolled = int(m.viewport.ScrollPercent() * 100)
	}
	return statusStyle.Render(fmt.Sprintf("%s  %3d%%  n/p: switch document  ↑/↓: scroll  q: quit", position, scrolled))
}

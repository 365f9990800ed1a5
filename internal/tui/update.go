package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := msg.Height - lipgloss.Height(m.header()) - lipgloss.Height(m.status())
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.viewport.SetContent(m.content())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "n", "right", "tab":
			return m.turn(1), nil
		case "p", "left", "shift+tab":
			return m.turn(-1), nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// turn moves by delta pages, wrapping around at both ends.
func (m Model) turn(delta int) Model {
	if len(m.pages) == 0 {
		return m
	}
	m.current = (m.current + delta + len(m.pages)) % len(m.pages)
	if m.ready {
		m.viewport.SetContent(m.content())
		m.viewport.GotoTop()
	}
	return m
}

func (m Model) content() string {
	page, ok := m.Current()
	if !ok {
		return "No documents registered."
	}
	if page.Footer == "" {
		return page.Body
	}
	return page.Body + "\n\n" + footerStyle.Render(page.Footer)
}

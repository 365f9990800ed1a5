// Package tui pages through rendered documents in the terminal.
package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Page is one document shown by the pager.
type Page struct {
	Title  string
	Body   string
	Footer string
}

// Model is the Bubbletea state of the document pager.
type Model struct {
	pages    []Page
	current  int
	viewport viewport.Model
	ready    bool
	width    int
	quitting bool
}

// NewModel creates a pager showing pages in order, starting with the first.
func NewModel(pages []Page) Model {
	return Model{pages: pages}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Current returns the page on screen.
func (m Model) Current() (Page, bool) {
	if len(m.pages) == 0 {
		return Page{}, false
	}
	return m.pages[m.current], true
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

// Run shows pages until the user quits or ctx is cancelled.
func Run(ctx context.Context, pages []Page, in io.Reader, out io.Writer) error {
	program := tea.NewProgram(NewModel(pages),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

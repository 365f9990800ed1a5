package info

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// styled reports whether out is a terminal that can show colours.
func styled(out io.Writer) bool {
	if file, ok := out.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}

func heading(out io.Writer, text string) {
	if styled(out) {
		fmt.Fprintln(out, headingStyle.Render(text))
		return
	}
	fmt.Fprintln(out, text)
	fmt.Fprintln(out, strings.Repeat("=", len(text)))
}

func muted(out io.Writer, text string) string {
	if styled(out) {
		return mutedStyle.Render(text)
	}
	return text
}

// table writes rows under header as aligned columns.
func table(out io.Writer, header []string, rows [][]string) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	return writer.Flush()
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func valueOrFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

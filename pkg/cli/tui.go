package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Row is one labeled line of a Table.
type Row struct {
	Label string
	Value string
}

// Table is a titled box of labeled rows, used for command summaries.
type Table struct {
	Title  string
	Status string
	Rows   []Row
}

// Tabular is implemented by results that can render as a Table.
type Tabular interface {
	Table() Table
}

// Render renders the table inside a rounded border.
func (t Table) Render(s Styles) string {
	width := 0
	for _, r := range t.Rows {
		width = max(width, lipgloss.Width(r.Label))
	}

	var lines []string
	if t.Title != "" {
		title := s.Title.Render(t.Title)
		if t.Status != "" {
			title += " " + s.Help.Render("["+t.Status+"]")
		}
		lines = append(lines, title)
	}
	for _, r := range t.Rows {
		label := r.Label + strings.Repeat(" ", width-lipgloss.Width(r.Label))
		lines = append(lines, s.Label.Render(label)+"  "+r.Value)
	}
	return s.Border.Render(strings.Join(lines, "\n"))
}

package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors defines the color palette for command output.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Added   lipgloss.Color
	Removed lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Success: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow
	Added:   lipgloss.Color("#00B894"),
	Removed: lipgloss.Color("#D63031"),
}

// Styles contains the lipgloss styles used by the commands.
// Rendering degrades to plain text when output is not a terminal.
type Styles struct {
	Header  lipgloss.Style
	Link    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Added   lipgloss.Style
	Removed lipgloss.Style
	Current lipgloss.Style
	Done    lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(Colors.Primary),
		Link:    lipgloss.NewStyle().Foreground(Colors.Primary),
		Muted:   lipgloss.NewStyle().Foreground(Colors.Muted),
		Success: lipgloss.NewStyle().Foreground(Colors.Success),
		Warning: lipgloss.NewStyle().Foreground(Colors.Warning),
		Error:   lipgloss.NewStyle().Foreground(Colors.Error),
		Added:   lipgloss.NewStyle().Foreground(Colors.Added),
		Removed: lipgloss.NewStyle().Foreground(Colors.Removed),
		Current: lipgloss.NewStyle().Bold(true),
		Done:    lipgloss.NewStyle().Foreground(Colors.Muted),
	}
}

var styles = DefaultStyles()

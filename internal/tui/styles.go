package tui

import "github.com/charmbracelet/lipgloss"

// Colors defines the color palette for the TUI.
var Colors = struct {
	Primary  lipgloss.Color
	Muted    lipgloss.Color
	Error    lipgloss.Color
	Success  lipgloss.Color
	Warning  lipgloss.Color
	Selected lipgloss.Color
}{
	Primary:  lipgloss.Color("#6C5CE7"), // Purple
	Muted:    lipgloss.Color("#636E72"), // Gray
	Error:    lipgloss.Color("#D63031"), // Red
	Success:  lipgloss.Color("#00B894"), // Green
	Warning:  lipgloss.Color("#FDCB6E"), // Yellow
	Selected: lipgloss.Color("#FFEAA7"),
}

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	App      lipgloss.Style
	Header   lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Closed   lipgloss.Style
	Muted    lipgloss.Style
	Current  lipgloss.Style
	Pending  lipgloss.Style
	Status   lipgloss.Style
	ErrorMsg lipgloss.Style
	Warning  lipgloss.Style
	Footer   lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		App:      lipgloss.NewStyle().Padding(1, 2),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(Colors.Primary),
		Item:     lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(Colors.Selected),
		Closed:   lipgloss.NewStyle().Foreground(Colors.Muted).Strikethrough(true),
		Muted:    lipgloss.NewStyle().Foreground(Colors.Muted),
		Current:  lipgloss.NewStyle().Foreground(Colors.Success),
		Pending:  lipgloss.NewStyle().Foreground(Colors.Warning),
		Status:   lipgloss.NewStyle().Foreground(Colors.Success),
		ErrorMsg: lipgloss.NewStyle().Foreground(Colors.Error),
		Warning:  lipgloss.NewStyle().Foreground(Colors.Warning),
		Footer:   lipgloss.NewStyle().Foreground(Colors.Muted).MarginTop(1),
	}
}

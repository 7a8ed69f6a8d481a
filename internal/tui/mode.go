// Package tui provides the terminal browser for synced issue trees.
package tui

// Mode represents the current UI mode.
type Mode int

const (
	ModeIssues Mode = iota // List of synced issue trees
	ModeTree               // Outline of one issue file
	ModeHelp               // Help overlay
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIssues:
		return "issues"
	case ModeTree:
		return "tree"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}

package repl

import "github.com/charmbracelet/lipgloss"

// Color palette, single accent with neutral support.
const (
	colorCyan = "45"  // prompt accent
	colorGray = "245" // secondary text
	colorRed  = "196" // errors
)

// Styles holds the REPL output styles.
type Styles struct {
	Prompt lipgloss.Style
	Error  lipgloss.Style
	Dim    lipgloss.Style
}

// DefaultStyles returns styled components for terminal sessions.
func DefaultStyles() Styles {
	return Styles{
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorCyan)),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
	}
}

// NoColorStyles returns unstyled components for plain or piped sessions.
func NoColorStyles() Styles {
	return Styles{
		Prompt: lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
	}
}

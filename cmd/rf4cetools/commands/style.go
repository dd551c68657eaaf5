package commands

import "github.com/charmbracelet/lipgloss"

// Diagnostic colorization lives at the CLI edge only; pkg/rf4ce and
// internal/udpbridge never import lipgloss and emit plain structured
// log events instead.
var (
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleMatched = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleFaint   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

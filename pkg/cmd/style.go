package cmd

import "github.com/charmbracelet/lipgloss"

var (
	green  = lipgloss.Color("#22A06B")
	red    = lipgloss.Color("#D93025")
	yellow = lipgloss.Color("#F59E0B")
	slate  = lipgloss.Color("#667085")

	headerStyle = lipgloss.NewStyle().Bold(true)
	nameStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(slate)
	okStyle     = lipgloss.NewStyle().Foreground(green)
	badStyle    = lipgloss.NewStyle().Foreground(red)
	warnStyle   = lipgloss.NewStyle().Foreground(yellow)
)

const (
	iconCheck   = "✓"
	iconCross   = "✗"
	iconWarning = "!"
)

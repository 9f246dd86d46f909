package main

import "github.com/charmbracelet/lipgloss"

// Terminal styles for one-shot command output.
var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func formatSuccess(msg string) string {
	return successStyle.Render("✓ " + msg)
}

func formatError(msg string) string {
	return errorStyle.Render("✗ " + msg)
}

func formatWarning(msg string) string {
	return warningStyle.Render("! " + msg)
}

// swatch renders a two-cell block in the given hex color.
func swatch(hex string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ")
}

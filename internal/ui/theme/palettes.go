package theme

import "github.com/charmbracelet/lipgloss"

// Nord palette, https://www.nordtheme.com/
var Nord = Theme{
	Name: "nord",

	Background: lipgloss.Color("#2E3440"),
	Foreground: lipgloss.Color("#ECEFF4"),
	Subtle:     lipgloss.Color("#4C566A"),
	Highlight:  lipgloss.Color("#3B4252"),
	Border:     lipgloss.Color("#4C566A"),

	Primary:   lipgloss.Color("#88C0D0"), // Nord8
	Secondary: lipgloss.Color("#81A1C1"), // Nord9
	Info:      lipgloss.Color("#5E81AC"), // Nord10
	Success:   lipgloss.Color("#A3BE8C"), // Nord14
	Warning:   lipgloss.Color("#EBCB8B"), // Nord13
	Error:     lipgloss.Color("#BF616A"), // Nord11

	StatusPending:   lipgloss.Color("#EBCB8B"),
	StatusOngoing:   lipgloss.Color("#88C0D0"),
	StatusCompleted: lipgloss.Color("#A3BE8C"),
	StatusArchived:  lipgloss.Color("#4C566A"),
}

// Dracula palette, https://draculatheme.com/
var Dracula = Theme{
	Name: "dracula",

	Background: lipgloss.Color("#282A36"),
	Foreground: lipgloss.Color("#F8F8F2"),
	Subtle:     lipgloss.Color("#6272A4"),
	Highlight:  lipgloss.Color("#44475A"),
	Border:     lipgloss.Color("#6272A4"),

	Primary:   lipgloss.Color("#BD93F9"), // Purple
	Secondary: lipgloss.Color("#8BE9FD"), // Cyan
	Info:      lipgloss.Color("#8BE9FD"),
	Success:   lipgloss.Color("#50FA7B"),
	Warning:   lipgloss.Color("#F1FA8C"),
	Error:     lipgloss.Color("#FF5555"),

	StatusPending:   lipgloss.Color("#F1FA8C"),
	StatusOngoing:   lipgloss.Color("#8BE9FD"),
	StatusCompleted: lipgloss.Color("#50FA7B"),
	StatusArchived:  lipgloss.Color("#6272A4"),
}

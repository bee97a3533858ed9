package report

import "charm.land/lipgloss/v2"

// Colors
var (
	Primary = lipgloss.Color("#33A8FF")
	Muted   = lipgloss.Color("#6B7280")
	Success = lipgloss.Color("#10B981")
	Warning = lipgloss.Color("#F59E0B")
	Error   = lipgloss.Color("#EF4444")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	StepStyle = lipgloss.NewStyle().
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

package cli

import "github.com/charmbracelet/lipgloss"

type styles struct {
	banner  lipgloss.Style
	prompt  lipgloss.Style
	agent   lipgloss.Style
	help    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		banner: r.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("62")).
			Foreground(lipgloss.Color("87")).
			Bold(true).
			Padding(0, 4),
		prompt:  r.NewStyle().Foreground(lipgloss.Color("87")),
		agent:   r.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		help:    r.NewStyle().Foreground(lipgloss.Color("226")),
		success: r.NewStyle().Foreground(lipgloss.Color("46")),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Core palette: indigo, rice white and the gold of a sugidama.
	Indigo    = lipgloss.Color("#264653")
	DeepBlue  = lipgloss.Color("#1D3557")
	Gold      = lipgloss.Color("#E9C46A")
	Amber     = lipgloss.Color("#F4A261")
	Vermilion = lipgloss.Color("#E63946")
	RiceWhite = lipgloss.Color("#F1FAEE")
	Sky       = lipgloss.Color("#A8DADC")
	MidGray   = lipgloss.Color("#6c757d")
	DimGray   = lipgloss.Color("#495057")

	BannerStyle = lipgloss.NewStyle().
			Foreground(Gold).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(RiceWhite).
			Background(Indigo).
			Bold(true).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Sky).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(RiceWhite)

	BulletStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ScoreStyle = lipgloss.NewStyle().
			Foreground(DeepBlue).
			Background(Gold).
			Bold(true).
			Padding(0, 1)

	BarFullStyle = lipgloss.NewStyle().
			Foreground(Gold)

	BarEmptyStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Gold)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Sky).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Vermilion).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MidGray)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Indigo).
			Padding(0, 1)
)

const Banner = `
  ╔═╗╔═╗╦╔═╔═╗  ╔╦╗╔═╗╔╦╗╔═╗
  ╚═╗╠═╣╠╩╗║╣   ║║║╠═╣ ║ ║╣
  ╚═╝╩ ╩╩ ╩╚═╝  ╩ ╩╩ ╩ ╩ ╚═╝
`

package chat

import "github.com/charmbracelet/lipgloss"

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("231")).
	Background(lipgloss.Color("62")).
	Padding(0, 1)

var inputBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), true, false, false, false).
	BorderForeground(lipgloss.Color("238"))

var alertStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("196")).
	Foreground(lipgloss.Color("255")).
	Padding(0, 2)

var (
	userLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	agentLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	timeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	userTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2)
	agentTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).PaddingLeft(2)
	welcomeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	typingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	micStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	micRecStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	disabledStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	selectedStyle   = lipgloss.NewStyle().Reverse(true)
)

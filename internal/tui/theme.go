package tui

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Catppuccin Mocha palette
// https://catppuccin.com/palette
// ---------------------------------------------------------------------------

const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext1 lipgloss.Color = "#bac2de"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface2 lipgloss.Color = "#585b70"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorMantle   lipgloss.Color = "#181825"
)

const (
	colorAccent  = colorPink
	colorBrand   = colorMauve
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

// ---------------------------------------------------------------------------
// Styles
// ---------------------------------------------------------------------------

var (
	headerBarStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorMantle).
			Padding(0, 2)

	headerAppStyle = lipgloss.NewStyle().
			Foreground(colorBrand).
			Background(colorMantle).
			Bold(true)

	headerSubStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Background(colorMantle)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Background(colorSurface0).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorOverlay1).
				Background(colorMantle).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(colorOverlay0).
			Background(colorMantle)

	titleStyle = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	labelStyle        = lipgloss.NewStyle().Foreground(colorSubtext0)
	focusedLabelStyle = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	valueStyle        = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle        = lipgloss.NewStyle().Foreground(colorOverlay1)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorSubtext1).
			Background(colorSurface0).
			Padding(0, 2)

	focusedButtonStyle = lipgloss.NewStyle().
				Foreground(colorMantle).
				Background(colorAccent).
				Bold(true).
				Padding(0, 2)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)

	tableHeaderStyle  = lipgloss.NewStyle().Foreground(colorSubtext0).Bold(true)
	sortedHeaderStyle = lipgloss.NewStyle().Foreground(colorPeach).Bold(true)
	cursorStyle       = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	selectedRowStyle  = lipgloss.NewStyle().Background(colorSurface0)
	separatorStyle    = lipgloss.NewStyle().Foreground(colorSurface2)
	scrollStyle       = lipgloss.NewStyle().Foreground(colorOverlay1)

	approvedStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(colorOverlay1)
	amountStyle   = lipgloss.NewStyle().Foreground(colorBlue)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Background(colorMantle).
			Padding(0, 2)

	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
)

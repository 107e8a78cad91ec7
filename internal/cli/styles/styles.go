package styles

import (
	"image/color"

	"charm.land/lipgloss/v2"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/models"
)

var (
	// ColumnWidth is the rendered width of one status column
	ColumnWidth = 28

	// Column styles
	LaneStyle   lipgloss.Style
	ColumnStyle lipgloss.Style
	CardStyle   lipgloss.Style

	// Text styles
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	ValueStyle    lipgloss.Style

	// Status styles
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style

	theme = config.DefaultTheme()
)

func init() {
	Init(theme)
}

// Init initializes all CLI styles with the given theme
func Init(t config.Theme) {
	theme = t

	LaneStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Accent)).
		MarginBottom(1)

	ColumnStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.Accent)).
		Padding(0, 1).
		Width(ColumnWidth)

	CardStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Normal))

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Title))

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Subtle))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Normal))

	SuccessStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Success))

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Error))

	WarningStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Warning))
}

// ═══════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ═══════════════════════════════════════════════════════════════════

var statusColors = map[models.Color]string{
	models.ColorBlack:  "#808080",
	models.ColorGray:   "#A8A8A8",
	models.ColorBrown:  "#AF875F",
	models.ColorOrange: "#FF8700",
	models.ColorYellow: "#FFD700",
	models.ColorGreen:  "#5FD75F",
	models.ColorBlue:   "#5F87D7",
	models.ColorPurple: "#AF5FFF",
	models.ColorPink:   "#FF87D7",
	models.ColorRed:    "#FF5F5F",
}

// StatusColor returns the terminal color of a status color
func StatusColor(c models.Color) color.Color {
	if theme.Monochrome {
		return lipgloss.Color(theme.Normal)
	}
	hex, ok := statusColors[c]
	if !ok {
		return lipgloss.Color(theme.Normal)
	}
	return lipgloss.Color(hex)
}

// ColoredText renders text with a hex color
func ColoredText(text, hexColor string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor)).
		Render(text)
}

// RenderStatusHeader renders a status title in the status' own color
func RenderStatusHeader(st *models.Status) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(StatusColor(st.Color)).
		Render(st.Title)
}

// RenderColumn wraps content in a column border colored like the status
func RenderColumn(st *models.Status, content string) string {
	return ColumnStyle.
		BorderForeground(StatusColor(st.Color)).
		Render(content)
}

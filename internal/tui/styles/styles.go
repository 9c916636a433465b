package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Palette
var (
	Accent  = lipgloss.Color("#F43F5E")
	Surface = lipgloss.Color("#111827")
	Raised  = lipgloss.Color("#334155")
	Muted   = lipgloss.Color("#64748B")
	Subtle  = lipgloss.Color("#94A3B8")
	Text    = lipgloss.Color("#F1F5F9")
	OK      = lipgloss.Color("#22C55E")
	Fail    = lipgloss.Color("#F87171")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

func panel(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
}

var (
	ActiveBorder   = panel(Accent)
	InactiveBorder = panel(Muted)
	ModalStyle     = panel(Accent).Padding(1, 2).Background(Surface)
)

var (
	TitleStyle   = fg(Text).Bold(true)
	DimStyle     = fg(Muted)
	MetaStyle    = fg(Muted)
	AccentStyle  = fg(Accent)
	ErrorStyle   = fg(Fail)
	SuccessStyle = fg(OK)

	NormalItemStyle   = fg(Subtle)
	SelectedItemStyle = fg(Text).Background(Raised)

	// Search hits inside a row title
	MatchHighlightStyle         = fg(Accent).Bold(true)
	MatchHighlightSelectedStyle = MatchHighlightStyle.Background(Raised)

	StatusBarStyle = fg(Subtle).Padding(0, 1)
	HelpKeyStyle   = fg(Accent)
	HelpDescStyle  = fg(Muted)
)

// Row markers
const (
	LikedChar      = "♥"
	SubscribedChar = "★"
	OwnChar        = "•"
)

var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Truncate cuts s to width terminal cells with a trailing ellipsis
func Truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Pad truncates or right-fills s to exactly width cells
func Pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

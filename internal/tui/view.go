package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/tui/styles"
)

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), m.list.View())
	if m.input.IsVisible() {
		body = lipgloss.Place(m.width, m.height-ChromeHeight,
			lipgloss.Center, lipgloss.Center, m.input.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.footer())
}

func (m Model) footer() string {
	var left string
	switch {
	case m.status != "" && m.statusIsErr:
		left = styles.ErrorStyle.Render(m.status)
	case m.status != "":
		left = styles.SuccessStyle.Render(m.status)
	default:
		left = m.identity()
	}

	right := m.help()
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		right = ""
		gap = 1
	}
	return styles.StatusBarStyle.Width(m.width).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) identity() string {
	sess := m.app.SessionQueries.Session()
	switch sess.Status {
	case domain.AuthAuthenticated:
		return styles.AccentStyle.Render("@" + sess.User.Username)
	case domain.AuthExpired:
		return styles.ErrorStyle.Render("session expired")
	default:
		return styles.DimStyle.Render("signed out")
	}
}

func (m Model) help() string {
	bindings := []key.Binding{Keys.Enter, Keys.Search, Keys.Refresh, Keys.Quit}
	switch m.mode {
	case modeComments:
		bindings = []key.Binding{Keys.Compose, Keys.Like, Keys.Delete, Keys.More, Keys.Back}
	case modePlaylist, modeSearch:
		bindings = []key.Binding{Keys.Enter, Keys.Like, Keys.Back}
	default:
		if m.section == SectionPosts {
			bindings = []key.Binding{Keys.Compose, Keys.Like, Keys.Delete, Keys.Quit}
		} else if !m.sidebar.IsFocused() {
			bindings = append([]key.Binding{Keys.Comments, Keys.Like, Keys.Subscribe}, bindings...)
		}
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

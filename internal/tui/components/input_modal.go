package components

import (
	"strconv"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/vidtube/internal/tui/styles"
)

const promptWidth = 44

// InputModal is a one-line prompt for searching and composing. Enter
// submits, esc cancels.
type InputModal struct {
	title string
	field textinput.Model
	open  bool
}

func NewInputModal() InputModal {
	field := textinput.New()
	field.Prompt = ""
	field.Width = promptWidth - 4
	field.TextStyle = styles.TitleStyle.UnsetBold()
	field.PlaceholderStyle = styles.DimStyle
	return InputModal{field: field}
}

// Show opens an empty prompt. limit caps the rune count; 0 means none.
func (m *InputModal) Show(title, placeholder string, limit int) {
	m.title = title
	m.field.Placeholder = placeholder
	m.field.CharLimit = limit
	m.field.Reset()
	m.field.Focus()
	m.open = true
}

func (m *InputModal) Hide() {
	m.field.Blur()
	m.open = false
}

func (m InputModal) IsVisible() bool { return m.open }

func (m InputModal) Value() string { return m.field.Value() }

// Update feeds msg to the text field. The bool is true when the user
// pressed enter; the caller reads Value and hides the modal.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.open {
		return m, nil, false
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.Type {
		case tea.KeyEnter:
			return m, nil, true
		case tea.KeyEsc:
			m.Hide()
			return m, nil, false
		}
	}
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd, false
}

func (m InputModal) View() string {
	if !m.open {
		return ""
	}
	heading := m.title
	if limit := m.field.CharLimit; limit > 0 {
		used := utf8.RuneCountInString(m.field.Value())
		heading += " (" + strconv.Itoa(used) + "/" + strconv.Itoa(limit) + ")"
	}

	row := lipgloss.NewStyle().Width(promptWidth).Background(styles.Surface)
	body := lipgloss.JoinVertical(lipgloss.Left,
		row.Inherit(styles.TitleStyle).Render(heading),
		row.Render(""),
		row.Render(m.field.View()),
	)
	return styles.ModalStyle.Render(body)
}

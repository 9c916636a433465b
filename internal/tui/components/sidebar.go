package components

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vidtube/internal/tui/styles"
)

// BorderSize is the rows and columns a rounded border takes from a panel
const BorderSize = 2

type sectionState int

const (
	sectionIdle sectionState = iota
	sectionLoading
	sectionFailed
)

// sectionItem is one sidebar row. The spinner frame travels with the item
// so the delegate stays stateless.
type sectionItem struct {
	name  string
	state sectionState
	frame int
}

func (i sectionItem) FilterValue() string { return i.name }

func (i sectionItem) marker() string {
	switch i.state {
	case sectionLoading:
		return styles.SpinnerFrames[i.frame%len(styles.SpinnerFrames)]
	case sectionFailed:
		return styles.ErrorStyle.Render("✗")
	}
	return " "
}

type sectionDelegate struct{}

func (sectionDelegate) Height() int                         { return 1 }
func (sectionDelegate) Spacing() int                        { return 0 }
func (sectionDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (sectionDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(sectionItem)
	if !ok {
		return
	}
	style := styles.NormalItemStyle
	if index == m.Index() {
		style = styles.SelectedItemStyle
	}
	label := styles.Pad(it.marker()+" "+it.name, m.Width()-2)
	fmt.Fprint(w, style.Padding(0, 1).Render(label))
}

// Sidebar lists the browse sections with their load state
type Sidebar struct {
	list          list.Model
	sections      []sectionItem
	focused       bool
	width, height int
}

func NewSidebar(names []string) Sidebar {
	l := list.New(nil, sectionDelegate{}, 0, 0)
	l.Title = "vidtube"
	l.Styles.Title = styles.AccentStyle.Bold(true).Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	s := Sidebar{list: l}
	for _, name := range names {
		s.sections = append(s.sections, sectionItem{name: name})
	}
	s.sync()
	return s
}

// SetState marks a section as loading or failed
func (s *Sidebar) SetState(index int, loading, failed bool) {
	if index < 0 || index >= len(s.sections) {
		return
	}
	st := sectionIdle
	if loading {
		st = sectionLoading
	} else if failed {
		st = sectionFailed
	}
	s.sections[index].state = st
	s.sync()
}

// SetSpinnerFrame advances the loading animation
func (s *Sidebar) SetSpinnerFrame(frame int) {
	for i := range s.sections {
		s.sections[i].frame = frame
	}
	s.sync()
}

func (s *Sidebar) sync() {
	items := make([]list.Item, 0, len(s.sections))
	for _, it := range s.sections {
		items = append(items, it)
	}
	s.list.SetItems(items)
}

func (s *Sidebar) SetSize(width, height int) {
	s.width, s.height = width, height
	s.list.SetSize(width-BorderSize, height-BorderSize)
}

func (s *Sidebar) SetFocused(focused bool) { s.focused = focused }

func (s Sidebar) IsFocused() bool { return s.focused }

// SelectedIndex returns the highlighted section
func (s Sidebar) SelectedIndex() int { return s.list.Index() }

// Update moves the cursor; it ignores input while unfocused.
func (s Sidebar) Update(msg tea.Msg) (Sidebar, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !s.focused {
		return s, nil
	}
	switch km.String() {
	case "down", "j":
		s.list.CursorDown()
	case "up", "k":
		s.list.CursorUp()
	case "home", "g":
		s.list.Select(0)
	case "end", "G":
		s.list.Select(len(s.sections) - 1)
	}
	return s, nil
}

func (s Sidebar) View() string {
	border := styles.InactiveBorder
	if s.focused {
		border = styles.ActiveBorder
	}
	fw, fh := border.GetFrameSize()
	return border.Width(s.width - fw).Height(s.height - fh).Render(s.list.View())
}

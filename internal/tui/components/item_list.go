package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/vidtube/internal/tui/styles"
)

// Row is one line of an ItemList
type Row struct {
	ID      string
	Title   string
	Meta    string
	Matched []int // rune positions in Title to highlight
}

// ItemList is a scrollable single-selection list. The cursor follows the
// selected row's ID when rows are replaced.
type ItemList struct {
	title   string
	empty   string
	rows    []Row
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
}

func NewItemList() ItemList {
	return ItemList{empty: "Nothing here yet"}
}

// SetTitle sets the header and the text shown when there are no rows
func (l *ItemList) SetTitle(title, empty string) {
	l.title = title
	l.empty = empty
}

// SetRows replaces the rows, keeping the cursor on the same ID if present
func (l *ItemList) SetRows(rows []Row) {
	var selected string
	if r, ok := l.Selected(); ok {
		selected = r.ID
	}
	l.rows = rows
	l.cursor = 0
	for i, r := range rows {
		if r.ID == selected {
			l.cursor = i
			break
		}
	}
	l.clampOffset()
}

// Reset moves the cursor to the top
func (l *ItemList) Reset() {
	l.cursor = 0
	l.offset = 0
}

func (l ItemList) Selected() (Row, bool) {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return Row{}, false
	}
	return l.rows[l.cursor], true
}

func (l ItemList) Len() int { return len(l.rows) }

// AtEnd reports whether the cursor is on the last row
func (l ItemList) AtEnd() bool {
	return len(l.rows) > 0 && l.cursor == len(l.rows)-1
}

func (l *ItemList) CursorUp() {
	if l.cursor > 0 {
		l.cursor--
	}
	l.clampOffset()
}

func (l *ItemList) CursorDown() {
	if l.cursor < len(l.rows)-1 {
		l.cursor++
	}
	l.clampOffset()
}

func (l *ItemList) Top() {
	l.cursor = 0
	l.clampOffset()
}

func (l *ItemList) Bottom() {
	if len(l.rows) > 0 {
		l.cursor = len(l.rows) - 1
	}
	l.clampOffset()
}

func (l *ItemList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.clampOffset()
}

func (l *ItemList) SetFocused(focused bool) {
	l.focused = focused
}

// visibleRows is the number of rows that fit under the header
func (l ItemList) visibleRows() int {
	n := l.height - BorderSize - 2
	if n < 1 {
		return 1
	}
	return n
}

func (l *ItemList) clampOffset() {
	n := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+n {
		l.offset = l.cursor - n + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the component
func (l ItemList) View() string {
	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()
	inner := l.width - frameW

	lines := []string{styles.TitleStyle.Render(styles.Truncate(l.title, inner)), ""}
	if len(l.rows) == 0 {
		lines = append(lines, styles.DimStyle.Render(l.empty))
	}
	end := l.offset + l.visibleRows()
	if end > len(l.rows) {
		end = len(l.rows)
	}
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(l.rows[i], i == l.cursor, inner))
	}

	return style.
		Width(inner).
		Height(l.height - frameH).
		Render(strings.Join(lines, "\n"))
}

func (l ItemList) renderRow(r Row, selected bool, width int) string {
	base, match := styles.NormalItemStyle, styles.MatchHighlightStyle
	if selected {
		base, match = styles.SelectedItemStyle, styles.MatchHighlightSelectedStyle
	}

	metaWidth := lipgloss.Width(r.Meta)
	titleWidth := width - metaWidth - 1
	if titleWidth < 8 {
		titleWidth, metaWidth = width, 0
	}
	title := styles.Pad(r.Title, titleWidth)

	var b strings.Builder
	if len(r.Matched) == 0 {
		b.WriteString(base.Render(title))
	} else {
		hit := make(map[int]bool, len(r.Matched))
		for _, i := range r.Matched {
			hit[i] = true
		}
		for i, ch := range []rune(title) {
			if hit[i] {
				b.WriteString(match.Render(string(ch)))
			} else {
				b.WriteString(base.Render(string(ch)))
			}
		}
	}
	if metaWidth > 0 {
		meta := styles.MetaStyle
		if selected {
			meta = meta.Background(styles.Raised)
		}
		b.WriteString(base.Render(" "))
		b.WriteString(meta.Render(r.Meta))
	}
	return b.String()
}

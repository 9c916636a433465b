package components

import (
	"strings"
	"testing"
)

func rows(ids ...string) []Row {
	out := make([]Row, len(ids))
	for i, id := range ids {
		out[i] = Row{ID: id, Title: "title " + id}
	}
	return out
}

func TestCursorFollowsSelectedID(t *testing.T) {
	l := NewItemList()
	l.SetSize(60, 20)
	l.SetRows(rows("a", "b", "c"))
	l.CursorDown()

	// A new row lands above the selection
	l.SetRows(rows("z", "a", "b", "c"))
	if r, _ := l.Selected(); r.ID != "b" {
		t.Errorf("selected = %q, want b", r.ID)
	}

	// The selection disappears
	l.SetRows(rows("a", "c"))
	if r, _ := l.Selected(); r.ID != "a" {
		t.Errorf("selected = %q, want a", r.ID)
	}
}

func TestAtEnd(t *testing.T) {
	l := NewItemList()
	if l.AtEnd() {
		t.Error("empty list reports AtEnd")
	}
	l.SetRows(rows("a", "b"))
	l.Bottom()
	if !l.AtEnd() {
		t.Error("AtEnd false on last row")
	}
	l.CursorDown()
	if r, _ := l.Selected(); r.ID != "b" {
		t.Errorf("cursor moved past the end: %q", r.ID)
	}
	l.Top()
	if l.AtEnd() {
		t.Error("AtEnd true on first row")
	}
}

func TestViewShowsEmptyText(t *testing.T) {
	l := NewItemList()
	l.SetSize(60, 10)
	l.SetTitle("Playlists", "No playlists")
	if out := l.View(); !strings.Contains(out, "No playlists") {
		t.Errorf("view = %q", out)
	}
}

func TestViewScrollsToCursor(t *testing.T) {
	l := NewItemList()
	l.SetSize(60, 8)
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	l.SetRows(rows(ids...))
	l.Bottom()

	out := l.View()
	if !strings.Contains(out, "title t") {
		t.Error("last row not visible")
	}
	if strings.Contains(out, "title a") {
		t.Error("first row still visible")
	}
}

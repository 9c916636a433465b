package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vidtube/internal/adapter"
	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/store"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	st := store.NewMemory()
	st.Videos.Upsert(
		domain.Video{ID: "v1", Title: "Go basics", Views: 1200, VideoURL: "http://cdn/v1.mp4"},
		domain.Video{ID: "v2", Title: "Concurrency in Go", Views: 50},
		domain.Video{ID: "v3", Title: "Baking bread"},
	)

	a, err := app.New(adapter.DefaultConfig(), app.Options{Store: st})
	if err != nil {
		t.Fatal(err)
	}
	changes, unsubscribe := a.Changes(8)
	t.Cleanup(unsubscribe)

	m := NewModel(a, changes)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func press(m Model, k string) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	return next.(Model), cmd
}

func (m Model) search(q string) Model {
	m.query = q
	m.enterMode(modeSearch)
	return m
}

func TestSearchRowsHighlightMatches(t *testing.T) {
	m := newTestModel(t).search("go")

	if m.list.Len() != 2 {
		t.Fatalf("rows = %d, want 2", m.list.Len())
	}
	row, _ := m.list.Selected()
	if len(row.Matched) != 2 {
		t.Errorf("matched = %v", row.Matched)
	}
	if e, ok := m.entries[row.ID]; !ok || e.video == nil {
		t.Errorf("no video behind row %q", row.ID)
	}
}

func TestLikeRequiresSession(t *testing.T) {
	m := newTestModel(t).search("go")

	m, cmd := press(m, "l")
	if cmd != nil {
		t.Error("like issued while signed out")
	}
	if !m.statusIsErr || !strings.Contains(m.status, "vidtube login") {
		t.Errorf("status = %q", m.status)
	}
}

func TestEnterPlaysVideo(t *testing.T) {
	m := newTestModel(t).search("basics")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on a video returned no command")
	}
	if next.(Model).mode != modeSearch {
		t.Error("playing left search mode")
	}
}

func TestBackLeavesSearch(t *testing.T) {
	m := newTestModel(t).search("go")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := next.(Model).mode; got != modeSection {
		t.Errorf("mode = %v, want section", got)
	}
}

func TestPrivateSectionNeedsSession(t *testing.T) {
	m := newTestModel(t)

	cmd := m.openSection(SectionLiked)
	if cmd != nil {
		t.Error("liked videos fetched while signed out")
	}
	if !strings.Contains(m.status, "liked") {
		t.Errorf("status = %q", m.status)
	}

	if cmd := m.openSection(SectionVideos); cmd == nil {
		t.Error("public section returned no fetch")
	}
}

func TestDescribeUnauthenticated(t *testing.T) {
	msg := ErrMsg{Err: &domain.APIError{Kind: domain.KindUnauthenticated}, Context: "loading liked"}
	if got := describeError(msg); !strings.Contains(got, "vidtube login") {
		t.Errorf("describeError = %q", got)
	}
}

func TestSearchPromptOpensInput(t *testing.T) {
	m := newTestModel(t)

	m, _ = press(m, "/")
	if !m.input.IsVisible() || m.purpose != inputSearch {
		t.Fatal("search prompt not shown")
	}
	// Keys go to the prompt while it is open
	m, _ = press(m, "q")
	if !m.input.IsVisible() {
		t.Error("q closed the prompt")
	}
}

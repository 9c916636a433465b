package store

import (
	"context"
	"testing"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/request"
)

func TestSessionPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	const server = "http://localhost:8000/api/v1"

	s, err := Open(dir, server)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !s.Persistent() {
		t.Fatalf("store with dir should be persistent")
	}
	if _, ok := s.LoadSession(); ok {
		t.Fatalf("fresh store should have no session")
	}

	sess := domain.Session{
		User:         domain.User{ID: "u1", Username: "alice"},
		AccessToken:  "access",
		RefreshToken: "refresh",
		Status:       domain.AuthAuthenticated,
	}
	if err := s.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir, server+"/")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, ok := s.LoadSession()
	if !ok {
		t.Fatalf("session not restored")
	}
	if got.User.Username != "alice" || got.AccessToken != "access" || got.Status != domain.AuthAuthenticated {
		t.Errorf("restored session = %+v", got)
	}

	if err := s.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, ok := s.LoadSession(); ok {
		t.Errorf("session still present after clear")
	}
}

func TestSeparateServersDoNotShareSessions(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir, "http://a.example")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := Open(dir, "http://b.example")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	_ = a.SaveSession(domain.Session{AccessToken: "a"})
	if _, ok := b.LoadSession(); ok {
		t.Errorf("session leaked across servers")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	if s.Persistent() {
		t.Fatalf("memory store reports persistent")
	}
	_ = s.SaveSession(domain.Session{AccessToken: "x"})
	if got, ok := s.LoadSession(); !ok || got.AccessToken != "x" {
		t.Errorf("LoadSession = %+v, %v", got, ok)
	}
}

func TestTableOperations(t *testing.T) {
	tbl := NewTable(func(v domain.Video) string { return v.ID })
	tbl.Upsert(domain.Video{ID: "v1", Title: "one"}, domain.Video{ID: "v2", Title: "two"}, domain.Video{Title: "no id"})

	if tbl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tbl.Len())
	}
	got := tbl.GetMany([]string{"v2", "missing", "v1"})
	if len(got) != 2 || got[0].ID != "v2" || got[1].ID != "v1" {
		t.Errorf("GetMany = %+v", got)
	}

	if !tbl.Patch("v1", func(v *domain.Video) { v.LikesCount = 5 }) {
		t.Fatalf("Patch existing returned false")
	}
	if v, _ := tbl.Get("v1"); v.LikesCount != 5 {
		t.Errorf("patch not applied: %+v", v)
	}
	if tbl.Patch("missing", func(v *domain.Video) { v.LikesCount = 1 }) {
		t.Errorf("Patch missing returned true")
	}
	if tbl.Has("missing") {
		t.Errorf("Patch created a row")
	}

	if tbl.Replace(domain.Video{ID: "v3"}) {
		t.Errorf("Replace inserted an uncached entity")
	}
	if !tbl.Replace(domain.Video{ID: "v2", Title: "two!"}) {
		t.Errorf("Replace of cached entity failed")
	}

	tbl.Delete("v1")
	if tbl.Has("v1") {
		t.Errorf("Delete left v1")
	}
	tbl.Clear()
	if tbl.Len() != 0 {
		t.Errorf("Clear left %d rows", tbl.Len())
	}
}

func TestResetClearsTablesAndViews(t *testing.T) {
	s := NewMemory()
	s.Videos.Upsert(domain.Video{ID: "v1"})
	s.Channels.Upsert(domain.Channel{ID: "c1"})
	_ = s.SaveSession(domain.Session{AccessToken: "keep"})

	called := 0
	s.OnReset(func() { called++ })
	s.Reset()

	if s.Videos.Len() != 0 || s.Channels.Len() != 0 {
		t.Errorf("tables not cleared")
	}
	if called != 1 {
		t.Errorf("reset hook called %d times", called)
	}
	if _, ok := s.LoadSession(); !ok {
		t.Errorf("Reset should not clear the session")
	}
}

func TestSubscribePublish(t *testing.T) {
	s := NewMemory()
	ch, cancel := s.Subscribe(1)

	s.Publish(Change{Slice: "comments", Op: "comments.fetch", Status: request.Success})
	s.Publish(Change{Slice: "comments", Op: "dropped"}) // buffer full, dropped

	c := <-ch
	if c.Slice != "comments" || c.Status != request.Success {
		t.Errorf("change = %+v", c)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected change %+v", extra)
	default:
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Errorf("channel open after cancel")
	}
}

func TestSettleHookPublishes(t *testing.T) {
	s := NewMemory()
	ch, cancel := s.Subscribe(4)
	defer cancel()

	tr := request.NewTracker(s.SettleHook("posts"))
	_, tk := tr.Begin(context.Background(), request.Op("posts.fetch"), request.Latest)
	_ = tr.Settle(tk, nil, nil)

	c := <-ch
	if c.Slice != "posts" || c.Op != "posts.fetch" || c.Status != request.Success {
		t.Errorf("change = %+v", c)
	}
}

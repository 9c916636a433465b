package store

import (
	"sync"

	"github.com/mmcdole/vidtube/internal/domain"
)

// Store is the client-side cache shared by every slice: the normalized
// entity tables, the persisted session and the change feed.
//
// Only the session survives a restart; tables always start empty.
type Store struct {
	Videos    *Table[domain.Video]
	Posts     *Table[domain.Post]
	Comments  *Table[domain.Comment]
	Playlists *Table[domain.Playlist]
	Channels  *Table[domain.Channel]

	sessions *sessionFile
	feed     *feed

	hooksMu sync.Mutex
	onReset []func()
}

// Open opens the store. An empty baseCacheDir gives a memory-only store.
// Each API base URL gets its own database so sessions never cross servers.
func Open(baseCacheDir, serverURL string) (*Store, error) {
	s := NewMemory()
	if baseCacheDir == "" {
		return s, nil
	}
	sf, err := openSessionFile(baseCacheDir, serverURL)
	if err != nil {
		return nil, err
	}
	s.sessions = sf
	return s, nil
}

// NewMemory returns a store without persistence
func NewMemory() *Store {
	return &Store{
		Videos:    NewTable(func(v domain.Video) string { return v.ID }),
		Posts:     NewTable(func(p domain.Post) string { return p.ID }),
		Comments:  NewTable(func(c domain.Comment) string { return c.ID }),
		Playlists: NewTable(func(p domain.Playlist) string { return p.ID }),
		Channels:  NewTable(func(c domain.Channel) string { return c.ID }),
		sessions:  &sessionFile{},
		feed:      newFeed(),
	}
}

// Persistent reports whether the store writes to disk
func (s *Store) Persistent() bool {
	return s.sessions.db != nil
}

// Close stops the change feed and releases the database
func (s *Store) Close() error {
	s.feed.close()
	return s.sessions.close()
}

// LoadSession returns the persisted session, if any
func (s *Store) LoadSession() (domain.Session, bool) {
	return s.sessions.load()
}

func (s *Store) SaveSession(sess domain.Session) error {
	return s.sessions.save(sess)
}

func (s *Store) ClearSession() error {
	return s.sessions.clear()
}

// OnReset registers fn to run on Reset. Slices use it to clear their views.
func (s *Store) OnReset(fn func()) {
	s.hooksMu.Lock()
	s.onReset = append(s.onReset, fn)
	s.hooksMu.Unlock()
}

// Reset empties every entity table and every registered view. The persisted
// session is not touched.
func (s *Store) Reset() {
	s.Videos.Clear()
	s.Posts.Clear()
	s.Comments.Clear()
	s.Playlists.Clear()
	s.Channels.Clear()

	s.hooksMu.Lock()
	hooks := make([]func(), len(s.onReset))
	copy(hooks, s.onReset)
	s.hooksMu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

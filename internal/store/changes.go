package store

import (
	"sync"

	"github.com/mmcdole/vidtube/internal/request"
)

// Change announces that a slice settled an operation and its views may
// have changed.
type Change struct {
	Slice  string
	Op     string
	Scope  string
	Status request.Status
	Err    error
}

type feed struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	closed bool
}

func newFeed() *feed {
	return &feed{subs: make(map[int]chan Change)}
}

// Subscribe returns a channel of changes and a function that ends the
// subscription. Changes are dropped for subscribers whose buffer is full.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	f := s.feed
	ch := make(chan Change, buffer)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
}

// Publish sends c to every subscriber without blocking
func (s *Store) Publish(c Change) {
	f := s.feed
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- c:
		default: // Non-blocking if channel full
		}
	}
}

// SettleHook returns a tracker hook that publishes settlements of slice
func (s *Store) SettleHook(slice string) request.Option {
	return request.WithSettleHook(func(k request.Key, st request.State) {
		s.Publish(Change{Slice: slice, Op: k.Op, Scope: k.Scope, Status: st.Status, Err: st.Err})
	})
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		close(ch)
		delete(f.subs, id)
	}
}

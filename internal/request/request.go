// Package request tracks the lifecycle of asynchronous operations.
//
// Every slice operation runs through a Tracker. An invocation enters Pending
// with a fresh request id and settles exactly once as Success or Error.
// Settlements of invocations that are no longer the most recently issued for
// their key are reported as ErrStale and never touch state.
package request

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStale is returned when a newer invocation superseded this one
var ErrStale = errors.New("request superseded by a newer invocation")

// Status is the lifecycle phase of an operation
type Status int

const (
	Idle Status = iota
	Pending
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// State is the tracked state of one operation key
type State struct {
	Status    Status
	RequestID uint64
	Err       error
	StartedAt time.Time
	SettledAt time.Time
}

// Key identifies an operation. Scope distinguishes concurrent operations of
// the same kind, e.g. deletes of two different comments.
type Key struct {
	Op    string
	Scope string
}

// Op returns an unscoped key
func Op(op string) Key {
	return Key{Op: op}
}

// Scoped returns a key for op on a specific entity
func Scoped(op, scope string) Key {
	return Key{Op: op, Scope: scope}
}

func (k Key) String() string {
	if k.Scope == "" {
		return k.Op
	}
	return k.Op + "/" + k.Scope
}

// Mode selects how overlapping invocations of one key are reconciled
type Mode int

const (
	// Latest cancels the in-flight invocation when a new one starts and
	// drops its settlement. Used for fetches.
	Latest Mode = iota

	// Each applies every successful settlement. Used for mutations, whose
	// effects the server has already committed.
	Each
)

// Recorder receives lifecycle events, typically for metrics
type Recorder interface {
	RecordSettled(op string, status Status, elapsed time.Duration)
	RecordStale(op string)
}

// Ticket identifies one invocation between Begin and Settle
type Ticket struct {
	Key     Key
	ID      uint64
	Mode    Mode
	started time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithRecorder reports settlements to r
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) {
		if r != nil {
			t.recorder = r
		}
	}
}

// WithSettleHook calls fn after every non-stale settlement, outside the
// tracker lock.
func WithSettleHook(fn func(Key, State)) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.hooks = append(t.hooks, fn)
		}
	}
}

// Tracker holds per-key operation state. The zero value is not usable;
// construct with NewTracker.
type Tracker struct {
	mu       sync.Mutex
	seq      uint64
	states   map[Key]State
	latest   map[Key]uint64
	resetAt  map[Key]uint64
	inflight map[Key]map[uint64]context.CancelFunc
	lastErr  error

	recorder Recorder
	hooks    []func(Key, State)
	now      func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		states:   make(map[Key]State),
		latest:   make(map[Key]uint64),
		resetAt:  make(map[Key]uint64),
		inflight: make(map[Key]map[uint64]context.CancelFunc),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin starts an invocation. The returned context is cancelled when the
// invocation is superseded (Latest mode), cancelled explicitly, or settled.
func (t *Tracker) Begin(ctx context.Context, key Key, mode Mode) (context.Context, Ticket) {
	rctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if mode == Latest {
		for _, c := range t.inflight[key] {
			c()
		}
	}

	t.seq++
	tk := Ticket{Key: key, ID: t.seq, Mode: mode, started: t.now()}
	t.latest[key] = tk.ID
	t.states[key] = State{Status: Pending, RequestID: tk.ID, StartedAt: tk.started}

	if t.inflight[key] == nil {
		t.inflight[key] = make(map[uint64]context.CancelFunc)
	}
	t.inflight[key][tk.ID] = cancel

	return rctx, tk
}

// Settle completes an invocation. On success apply runs while the tracker
// lock is held, so no newer invocation can settle in between; apply must not
// call back into the tracker. Returns ErrStale if the settlement was
// dropped, otherwise err.
func (t *Tracker) Settle(tk Ticket, err error, apply func()) error {
	t.mu.Lock()

	if c, ok := t.inflight[tk.Key][tk.ID]; ok {
		c()
		delete(t.inflight[tk.Key], tk.ID)
	}

	isLatest := t.latest[tk.Key] == tk.ID
	if (tk.Mode == Latest && !isLatest) || tk.ID <= t.resetAt[tk.Key] {
		t.mu.Unlock()
		if t.recorder != nil {
			t.recorder.RecordStale(tk.Key.Op)
		}
		return ErrStale
	}

	if err == nil && apply != nil {
		apply()
	}

	st := State{RequestID: tk.ID, StartedAt: tk.started, SettledAt: t.now()}
	if err != nil {
		st.Status = Error
		st.Err = err
		t.lastErr = err
	} else {
		st.Status = Success
		t.lastErr = nil
	}

	// Each-mode settlements of older invocations still applied their
	// result above, but the key keeps reporting the newest invocation.
	if isLatest {
		t.states[tk.Key] = st
	}
	t.mu.Unlock()

	if t.recorder != nil {
		t.recorder.RecordSettled(tk.Key.Op, st.Status, st.SettledAt.Sub(tk.started))
	}
	if isLatest {
		for _, fn := range t.hooks {
			fn(tk.Key, st)
		}
	}
	return err
}

// State returns the current state of key. Unknown keys are Idle.
func (t *Tracker) State(key Key) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[key]
}

// StatusOf returns the status of the most recently started invocation of op
// across all scopes.
func (t *Tracker) StatusOf(op string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	var newest State
	for k, st := range t.states {
		if k.Op == op && st.RequestID >= newest.RequestID {
			newest = st
		}
	}
	return newest.Status
}

// Pending reports whether any invocation of key is in flight
func (t *Tracker) Pending(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight[key]) > 0
}

// Err returns the error of the most recent settlement, nil after a success
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Cancel aborts in-flight invocations of key. They settle as Error with
// context.Canceled.
func (t *Tracker) Cancel(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.inflight[key] {
		c()
	}
}

// CancelAll aborts every in-flight invocation
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.inflight {
		for _, c := range m {
			c()
		}
	}
}

// Reset returns key to Idle. In-flight invocations of either mode are
// cancelled and their settlements become stale.
func (t *Tracker) Reset(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked(key)
}

// ResetAll returns every key to Idle and clears the last error
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.states {
		t.resetLocked(key)
	}
	for key := range t.inflight {
		t.resetLocked(key)
	}
	t.lastErr = nil
}

func (t *Tracker) resetLocked(key Key) {
	for _, c := range t.inflight[key] {
		c()
	}
	t.seq++
	t.latest[key] = t.seq
	t.resetAt[key] = t.seq
	delete(t.states, key)
}

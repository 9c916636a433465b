// Package session owns the signed-in identity: login and logout, token
// rotation, the user's profile, the viewed channel and the watch history.
//
// The session is the only state persisted across restarts. Commands.Refresh
// and Queries.AccessToken plug into the API client, which calls Expire when
// a request fails with 401 and the token cannot be refreshed.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/paging"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

// Operation names
const (
	OpRegister      = "session.register"
	OpLogin         = "session.login"
	OpLogout        = "session.logout"
	OpRefresh       = "session.refresh"
	OpCurrentUser   = "session.current_user"
	OpUpdateProfile = "session.update_profile"
	OpChannel       = "session.channel"
	OpHistory       = "session.history"
	OpAddHistory    = "session.add_history"
)

type view struct {
	mu      sync.RWMutex
	session domain.Session

	channelID     string
	historyIDs    []string
	historyLoaded bool
}

// Commands provides asynchronous operations that hit network.
type Commands struct {
	repo    domain.UserRepository
	store   *store.Store
	view    *view
	tracker *request.Tracker
	logger  *slog.Logger
}

// New creates the session slice. Call Restore before issuing any fetch.
func New(repo domain.UserRepository, st *store.Store, logger *slog.Logger, opts ...request.Option) (*Commands, *Queries) {
	if logger == nil {
		logger = slog.Default()
	}
	v := &view{}
	t := request.NewTracker(append([]request.Option{st.SettleHook("session")}, opts...)...)

	c := &Commands{repo: repo, store: st, view: v, tracker: t, logger: logger}
	st.OnReset(c.clearViews)
	return c, &Queries{store: st, view: v, tracker: t}
}

// Restore loads the persisted session. It reports whether a signed-in
// session was found.
func (c *Commands) Restore() bool {
	sess, ok := c.store.LoadSession()
	if !ok || sess.AccessToken == "" {
		return false
	}
	sess.Status = domain.AuthAuthenticated

	c.view.mu.Lock()
	c.view.session = sess
	c.view.mu.Unlock()
	c.logger.Info("restored session", "username", sess.User.Username)
	return true
}

// Register creates an account. The new user becomes the current user but
// is not signed in.
func (c *Commands) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.TrimSpace(in.Email)

	u, err := request.Run(ctx, c.tracker, request.Op(OpRegister), request.Each,
		func(ctx context.Context) (*domain.User, error) {
			if in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
				return nil, domain.NewValidationError("full name, username, email and password are required")
			}
			return c.repo.Register(ctx, in)
		},
		func(u *domain.User) {
			c.view.mu.Lock()
			c.view.session = domain.Session{User: *u, Status: domain.AuthAnonymous}
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to register", "error", err, "username", in.Username)
		return nil, err
	}
	c.logger.Info("registered", "username", u.Username, "id", u.ID)
	return u, nil
}

// Login signs in and persists the session. Signing in as a different user
// than before empties every cached list.
func (c *Commands) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)

	var previous string
	sess, err := request.Run(ctx, c.tracker, request.Op(OpLogin), request.Each,
		func(ctx context.Context) (*domain.Session, error) {
			if email == "" || password == "" {
				return nil, domain.NewValidationError("email and password are required")
			}
			return c.repo.Login(ctx, email, password)
		},
		func(sess *domain.Session) {
			sess.Status = domain.AuthAuthenticated
			c.view.mu.Lock()
			previous = c.view.session.User.ID
			c.view.session = *sess
			c.view.mu.Unlock()
			if err := c.store.SaveSession(*sess); err != nil {
				c.logger.Error("failed to save session", "error", err)
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to login", "error", err, "email", email)
		return nil, err
	}
	if previous != "" && previous != sess.User.ID {
		c.store.Reset()
	}
	c.logger.Info("logged in", "username", sess.User.Username)
	return sess, nil
}

// Logout ends the session and empties every cached list and table. A server
// that already considers the session gone counts as success.
func (c *Commands) Logout(ctx context.Context) error {
	err := request.Exec(ctx, c.tracker, request.Op(OpLogout), request.Each,
		func(ctx context.Context) error {
			err := c.repo.Logout(ctx)
			if errors.Is(err, domain.ErrUnauthenticated) {
				return nil
			}
			return err
		},
		nil,
	)
	if err != nil {
		c.logger.Error("failed to logout", "error", err)
		return err
	}

	// Reset runs every slice's reset hook, so it happens outside the
	// tracker lock
	c.signOut(domain.AuthAnonymous)
	c.store.Reset()
	c.logger.Info("logged out")
	return nil
}

// Refresh rotates the token pair. It fails without a request when there is
// no refresh token.
func (c *Commands) Refresh(ctx context.Context) error {
	c.view.mu.RLock()
	refreshToken := c.view.session.RefreshToken
	c.view.mu.RUnlock()

	type pair struct{ access, refresh string }
	_, err := request.Run(ctx, c.tracker, request.Op(OpRefresh), request.Each,
		func(ctx context.Context) (pair, error) {
			if refreshToken == "" {
				return pair{}, &domain.APIError{Kind: domain.KindUnauthenticated, Message: "no refresh token"}
			}
			access, refresh, err := c.repo.RefreshToken(ctx, refreshToken)
			return pair{access, refresh}, err
		},
		func(p pair) {
			c.view.mu.Lock()
			defer c.view.mu.Unlock()
			// A logout while refreshing wins
			if c.view.session.RefreshToken != refreshToken {
				return
			}
			c.view.session.AccessToken = p.access
			c.view.session.RefreshToken = p.refresh
			c.view.session.Status = domain.AuthAuthenticated
			if err := c.store.SaveSession(c.view.session); err != nil {
				c.logger.Error("failed to save session", "error", err)
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to refresh token", "error", err)
		return err
	}
	c.logger.Debug("refreshed token")
	return nil
}

// Expire handles a 401 that could not be recovered: the session is cleared
// and marked expired. Only an authenticated session can expire.
func (c *Commands) Expire() {
	c.view.mu.RLock()
	authenticated := c.view.session.IsAuthenticated()
	c.view.mu.RUnlock()
	if !authenticated {
		return
	}
	c.signOut(domain.AuthExpired)
	c.logger.Info("session expired")
}

func (c *Commands) signOut(status domain.AuthStatus) {
	c.view.mu.Lock()
	c.view.session = domain.Session{Status: status}
	c.view.mu.Unlock()
	if err := c.store.ClearSession(); err != nil {
		c.logger.Error("failed to clear session", "error", err)
	}
}

// FetchCurrentUser refreshes the signed-in user's profile
func (c *Commands) FetchCurrentUser(ctx context.Context) (*domain.User, error) {
	u, err := request.Run(ctx, c.tracker, request.Op(OpCurrentUser), request.Latest,
		func(ctx context.Context) (*domain.User, error) {
			return c.repo.CurrentUser(ctx)
		},
		c.setUser,
	)
	if err != nil {
		c.logger.Error("failed to fetch current user", "error", err)
		return nil, err
	}
	c.logger.Debug("fetched current user", "username", u.Username)
	return u, nil
}

// UpdateProfile changes the full name and/or email
func (c *Commands) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)

	u, err := request.Run(ctx, c.tracker, request.Op(OpUpdateProfile), request.Each,
		func(ctx context.Context) (*domain.User, error) {
			if in.FullName == "" && in.Email == "" {
				return nil, domain.NewValidationError("nothing to update")
			}
			return c.repo.UpdateProfile(ctx, in)
		},
		c.setUser,
	)
	if err != nil {
		c.logger.Error("failed to update profile", "error", err)
		return nil, err
	}
	c.logger.Info("updated profile", "username", u.Username)
	return u, nil
}

func (c *Commands) setUser(u *domain.User) {
	c.view.mu.Lock()
	defer c.view.mu.Unlock()
	if !c.view.session.IsAuthenticated() {
		return
	}
	c.view.session.User = *u
	if err := c.store.SaveSession(c.view.session); err != nil {
		c.logger.Error("failed to save session", "error", err)
	}
}

// FetchChannel loads a channel profile and makes it the viewed channel. The
// cached profile is replaced wholesale.
func (c *Commands) FetchChannel(ctx context.Context, username string) (*domain.Channel, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	ch, err := request.Run(ctx, c.tracker, request.Op(OpChannel), request.Latest,
		func(ctx context.Context) (*domain.Channel, error) {
			if username == "" {
				return nil, domain.NewValidationError("username is required")
			}
			return c.repo.Channel(ctx, username)
		},
		func(ch *domain.Channel) {
			c.store.Channels.Upsert(*ch)
			c.view.mu.Lock()
			c.view.channelID = ch.ID
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch channel", "error", err, "username", username)
		return nil, err
	}
	c.logger.Debug("fetched channel", "username", username, "id", ch.ID)
	return ch, nil
}

// FetchWatchHistory replaces the watch history
func (c *Commands) FetchWatchHistory(ctx context.Context) ([]domain.Video, error) {
	videos, err := request.Run(ctx, c.tracker, request.Op(OpHistory), request.Latest,
		func(ctx context.Context) ([]domain.Video, error) {
			return c.repo.WatchHistory(ctx)
		},
		func(videos []domain.Video) {
			ids := make([]string, 0, len(videos))
			for _, v := range videos {
				ids = append(ids, v.ID)
			}
			c.store.Videos.Upsert(videos...)
			c.view.mu.Lock()
			c.view.historyIDs = paging.Unique(ids)
			c.view.historyLoaded = true
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch watch history", "error", err)
		return nil, err
	}
	c.logger.Debug("fetched watch history", "count", len(videos))
	return videos, nil
}

// AddToWatchHistory records a view. A loaded history gets the video at the
// top.
func (c *Commands) AddToWatchHistory(ctx context.Context, videoID string) error {
	err := request.Exec(ctx, c.tracker, request.Scoped(OpAddHistory, videoID), request.Each,
		func(ctx context.Context) error {
			return c.repo.AddToWatchHistory(ctx, videoID)
		},
		func() {
			c.view.mu.Lock()
			defer c.view.mu.Unlock()
			if c.view.historyLoaded {
				c.view.historyIDs = paging.Prepend(c.view.historyIDs, videoID)
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to add to watch history", "error", err, "videoID", videoID)
		return err
	}
	c.logger.Debug("added to watch history", "videoID", videoID)
	return nil
}

// clearViews runs on store reset. The session itself is kept.
func (c *Commands) clearViews() {
	c.view.mu.Lock()
	c.view.channelID = ""
	c.view.historyIDs = nil
	c.view.historyLoaded = false
	c.view.mu.Unlock()

	c.tracker.Reset(request.Op(OpChannel))
	c.tracker.Reset(request.Op(OpHistory))
}

// CancelAll aborts every in-flight operation of the slice
func (c *Commands) CancelAll() {
	c.tracker.CancelAll()
}

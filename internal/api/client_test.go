package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/vidtube/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, RetryBackoff: time.Millisecond}, nil)
}

type staticTokens struct {
	mu    sync.Mutex
	token string
}

func (s *staticTokens) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticTokens) set(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
}

type refresherFunc func(ctx context.Context) error

func (f refresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

func TestListVideosUnwrapsEnvelopeAndPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "20" || q.Get("sortBy") != "createdAt" || q.Get("sortType") != "desc" || q.Get("query") != "go" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID")
		}
		io.WriteString(w, `{"statusCode":200,"success":true,"message":"ok","data":{
			"docs":[{"_id":"v1","title":"<b>Intro</b> &amp; setup","duration":65.4,"owner":{"_id":"u1","username":"alice"}}],
			"page":2,"totalPages":3,"limit":20,"totalDocs":41}}`)
	})

	p, err := c.ListVideos(context.Background(), domain.ListQuery{Page: 2, Limit: 20, Query: "go", SortBy: "createdAt", SortType: "desc"})
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if p.Page != 2 || p.TotalPages != 3 || p.TotalDocs != 41 || !p.HasMore() {
		t.Errorf("page = %+v", p)
	}
	if len(p.Docs) != 1 {
		t.Fatalf("docs = %d", len(p.Docs))
	}
	v := p.Docs[0]
	if v.Title != "Intro & setup" {
		t.Errorf("title = %q, want markup stripped", v.Title)
	}
	if v.Owner.Username != "alice" || v.Duration < 65*time.Second {
		t.Errorf("video = %+v", v)
	}
}

func TestBareArrayBecomesSinglePage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"statusCode":200,"success":true,"data":[
			{"_id":"c1","content":"first","owner":"u1"},
			{"_id":"c2","content":"second","owner":[{"_id":"u2","username":"bob"}]}]}`)
	})

	p, err := c.ListComments(context.Background(), "v9", 1, 10)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if p.Page != 1 || p.TotalPages != 1 || p.HasMore() || len(p.Docs) != 2 {
		t.Errorf("page = %+v", p)
	}
	if p.Docs[0].Owner.ID != "u1" || p.Docs[1].Owner.Username != "bob" {
		t.Errorf("owners = %+v / %+v", p.Docs[0].Owner, p.Docs[1].Owner)
	}
	if p.Docs[0].VideoID != "v9" {
		t.Errorf("VideoID = %q", p.Docs[0].VideoID)
	}
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{"json message", http.StatusNotFound, `{"statusCode":404,"message":"Video not found","success":false}`, domain.ErrNotFound, "Video not found"},
		{"html page", http.StatusBadRequest, "<!DOCTYPE html><html><body><pre>Error: Content is required<br>at handler</pre></body></html>", domain.ErrValidation, "Content is required"},
		{"empty body", http.StatusForbidden, "", domain.ErrForbidden, "Forbidden"},
		{"conflict", http.StatusConflict, `{"error":"already exists"}`, domain.ErrConflict, "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			err := c.DeletePost(context.Background(), "p1")
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err = %v, want %v", err, tt.sentinel)
			}
			apiErr, ok := domain.AsAPIError(err)
			if !ok {
				t.Fatalf("not an APIError: %T", err)
			}
			if apiErr.Status != tt.status || !strings.HasPrefix(apiErr.Message, tt.message) {
				t.Errorf("apiErr = %+v", apiErr)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url, Timeout: time.Second}, nil)
	_, err := c.GetVideo(context.Background(), "v1")
	if !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("err = %v, want ErrServerOffline", err)
	}
}

func TestRetriesIdempotentRequestsOnly(t *testing.T) {
	var gets, posts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if gets.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			io.WriteString(w, `{"statusCode":200,"success":true,"data":{"_id":"v1","title":"ok"}}`)
			return
		}
		posts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	c.retries = 2

	if _, err := c.GetVideo(context.Background(), "v1"); err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if gets.Load() != 3 {
		t.Errorf("GET attempts = %d, want 3", gets.Load())
	}

	if _, err := c.CreatePost(context.Background(), "hi"); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("CreatePost err = %v", err)
	}
	if posts.Load() != 1 {
		t.Errorf("POST attempts = %d, want 1", posts.Load())
	}
}

func TestUnauthorizedRefreshesAndRetries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"jwt expired"}`)
			return
		}
		io.WriteString(w, `{"statusCode":200,"success":true,"data":{"_id":"u1","username":"alice"}}`)
	})

	tokens := &staticTokens{token: "stale"}
	var refreshes atomic.Int32
	var expired atomic.Int32
	c.SetAuth(tokens, refresherFunc(func(ctx context.Context) error {
		refreshes.Add(1)
		tokens.set("fresh")
		return nil
	}), func() { expired.Add(1) })

	u, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("user = %+v", u)
	}
	if refreshes.Load() != 1 || expired.Load() != 0 {
		t.Errorf("refreshes = %d, expired = %d", refreshes.Load(), expired.Load())
	}
}

func TestUnauthorizedWithoutRefreshExpiresSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	var expired atomic.Int32
	c.SetAuth(&staticTokens{token: "dead"}, refresherFunc(func(ctx context.Context) error {
		return &domain.APIError{Kind: domain.KindUnauthenticated, Status: 401, Message: "refresh token expired"}
	}), func() { expired.Add(1) })

	_, err := c.LikedVideos(context.Background())
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if expired.Load() != 1 {
		t.Errorf("unauthorized hook ran %d times, want 1", expired.Load())
	}
}

func TestLoginFailureDoesNotExpireSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Invalid user credentials"}`)
	})
	called := false
	c.SetAuth(&staticTokens{}, nil, func() { called = true })

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
	if called {
		t.Errorf("login failure triggered the unauthorized hook")
	}
}

func TestLoginParsesSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/login" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"email":"a@b.c"`) {
			t.Errorf("body = %s", body)
		}
		io.WriteString(w, `{"statusCode":200,"success":true,"data":{"user":{"_id":"u1","username":"alice","email":"a@b.c"},"accessToken":"at","refreshToken":"rt"}}`)
	})

	sess, err := c.Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.AccessToken != "at" || sess.RefreshToken != "rt" || sess.User.ID != "u1" || !sess.IsAuthenticated() {
		t.Errorf("session = %+v", sess)
	}
}

func TestToggleLike(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/likes/toggle/c/c1":
			io.WriteString(w, `{"statusCode":200,"success":true,"data":{"isLiked":true,"likesCount":4}}`)
		case "/likes/toggle/p/p1":
			io.WriteString(w, `{"statusCode":200,"success":true,"data":{"liked":false}}`)
		default:
			io.WriteString(w, `{"statusCode":200,"success":true,"data":{}}`)
		}
	})

	st, err := c.ToggleLike(context.Background(), domain.LikeComment, "c1")
	if err != nil || !st.Liked || !st.CountKnown || st.LikesCount != 4 || st.Kind != domain.LikeComment {
		t.Errorf("comment toggle = %+v, %v", st, err)
	}
	st, err = c.ToggleLike(context.Background(), domain.LikePost, "p1")
	if err != nil || st.Liked || st.CountKnown {
		t.Errorf("post toggle = %+v, %v", st, err)
	}
	if _, err := c.ToggleLike(context.Background(), domain.LikeVideo, "v1"); !errors.Is(err, domain.ErrServer) {
		t.Errorf("missing state err = %v", err)
	}
}

func TestLikedVideosUnwrapsLikeDocuments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"statusCode":200,"success":true,"data":[
			{"_id":"like1","video":{"_id":"v1","title":"one"}},
			{"_id":"v2","title":"two"}]}`)
	})
	vs, err := c.LikedVideos(context.Background())
	if err != nil {
		t.Fatalf("LikedVideos: %v", err)
	}
	if len(vs) != 2 || vs[0].ID != "v1" || vs[1].ID != "v2" || !vs[0].IsLiked {
		t.Errorf("videos = %+v", vs)
	}
}

func TestPlaylistAcceptsIDsAndObjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/playlists/add/v2/pl1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"statusCode":200,"success":true,"data":{"_id":"pl1","name":"Mix","videos":["v1",{"_id":"v2","title":"Two"}]}}`)
	})
	pl, err := c.AddVideo(context.Background(), "pl1", "v2")
	if err != nil {
		t.Fatalf("AddVideo: %v", err)
	}
	if len(pl.VideoIDs) != 2 || pl.VideoIDs[0] != "v1" || pl.VideoIDs[1] != "v2" {
		t.Errorf("ids = %v", pl.VideoIDs)
	}
	if len(pl.Videos) != 1 || pl.Videos[0].Title != "Two" {
		t.Errorf("videos = %+v", pl.Videos)
	}
}

func TestSubscribedChannelsUnwrap(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"statusCode":200,"success":true,"data":[
			{"channelId":"ch1","username":"alice","subscribedAt":"2024-05-01T10:00:00Z"},
			{"_id":"sub2","subscribedChannel":{"_id":"ch2","username":"bob"}}]}`)
	})
	chs, err := c.SubscribedChannels(context.Background(), "u1")
	if err != nil {
		t.Fatalf("SubscribedChannels: %v", err)
	}
	if len(chs) != 2 || chs[0].ID != "ch1" || chs[1].ID != "ch2" || chs[0].SubscribedAt.IsZero() {
		t.Errorf("channels = %+v", chs)
	}
}

func TestRegisterSendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("username") != "alice" || r.FormValue("email") != "a@b.c" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"statusCode":201,"success":true,"data":{"_id":"u1","username":"alice"}}`)
	})
	u, err := c.Register(context.Background(), domain.RegisterInput{Username: "alice", Email: "a@b.c", Password: "pw", FullName: "Alice"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("user = %+v", u)
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetVideo(ctx, "v1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestMutationBodies(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
		body   map[string]string
	}{
		{
			name: "add comment",
			call: func(c *Client) error {
				_, err := c.AddComment(context.Background(), "v1", "hi")
				return err
			},
			method: http.MethodPost, path: "/comments/v1",
			body: map[string]string{"comment": "hi"},
		},
		{
			name: "update comment",
			call: func(c *Client) error {
				_, err := c.UpdateComment(context.Background(), "c1", "edited")
				return err
			},
			method: http.MethodPatch, path: "/comments/c1",
			body: map[string]string{"comment": "edited"},
		},
		{
			name: "create post",
			call: func(c *Client) error {
				_, err := c.CreatePost(context.Background(), "hello")
				return err
			},
			method: http.MethodPost, path: "/posts",
			body: map[string]string{"content": "hello"},
		},
		{
			name: "update post",
			call: func(c *Client) error {
				_, err := c.UpdatePost(context.Background(), "p1", "bye")
				return err
			},
			method: http.MethodPatch, path: "/posts/update_post/p1",
			body: map[string]string{"content": "bye"},
		},
		{
			name: "create playlist",
			call: func(c *Client) error {
				_, err := c.CreatePlaylist(context.Background(), "Later", "to watch")
				return err
			},
			method: http.MethodPost, path: "/playlists",
			body: map[string]string{"name": "Later", "description": "to watch"},
		},
		{
			name: "update playlist",
			call: func(c *Client) error {
				_, err := c.UpdatePlaylist(context.Background(), "pl1", "Now", "")
				return err
			},
			method: http.MethodPatch, path: "/playlists/pl1",
			body: map[string]string{"name": "Now", "description": ""},
		},
		{
			name: "update video",
			call: func(c *Client) error {
				_, err := c.UpdateVideo(context.Background(), "v1", domain.VideoUpdate{Title: "New title"})
				return err
			},
			method: http.MethodPatch, path: "/videos/v1",
			body: map[string]string{"title": "New title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.method || r.URL.Path != tt.path {
					t.Errorf("request = %s %s, want %s %s", r.Method, r.URL.Path, tt.method, tt.path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q", ct)
				}
				var got map[string]string
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					t.Errorf("decode body: %v", err)
				}
				if len(got) != len(tt.body) {
					t.Errorf("body = %v, want %v", got, tt.body)
				}
				for k, want := range tt.body {
					if v, ok := got[k]; !ok || v != want {
						t.Errorf("body[%q] = %q (present %v), want %q", k, v, ok, want)
					}
				}
				io.WriteString(w, `{"statusCode":200,"success":true,"data":{"_id":"x1"}}`)
			})
			if err := tt.call(c); err != nil {
				t.Fatalf("call: %v", err)
			}
		})
	}
}

func TestUpdateProfileSendsForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/users/update-profile" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("fullName") != "Alice A" {
			t.Errorf("fullName = %q", r.FormValue("fullName"))
		}
		if _, ok := r.MultipartForm.Value["email"]; ok {
			t.Errorf("empty email was sent")
		}
		io.WriteString(w, `{"statusCode":200,"success":true,"data":{"_id":"u1","username":"alice","fullName":"Alice A"}}`)
	})
	u, err := c.UpdateProfile(context.Background(), domain.ProfileUpdate{FullName: "Alice A"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.FullName != "Alice A" {
		t.Errorf("user = %+v", u)
	}
}

func TestToggleSubscriptionReadsEitherShape(t *testing.T) {
	tests := map[string]string{
		"inside data": `{"statusCode":200,"success":true,"data":{"isSubscribed":true,"subscribersCount":5}}`,
		"top level":   `{"statusCode":200,"success":true,"isSubscribed":true,"subscribersCount":5,"data":{}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/subscriptions/c/ch1" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				io.WriteString(w, body)
			})
			st, err := c.ToggleSubscription(context.Background(), "ch1")
			if err != nil {
				t.Fatalf("ToggleSubscription: %v", err)
			}
			if !st.Subscribed || !st.CountKnown || st.SubscribersCount != 5 || st.ChannelID != "ch1" {
				t.Errorf("state = %+v", st)
			}
		})
	}
}

func TestToggleSubscriptionWithoutStateFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"statusCode":200,"success":true,"data":{}}`)
	})
	if _, err := c.ToggleSubscription(context.Background(), "ch1"); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}

func TestFullBareArrayPageHasMore(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"statusCode":200,"success":true,"data":[
			{"_id":"c1","content":"a"},{"_id":"c2","content":"b"}]}`)
	})

	p, err := c.ListComments(context.Background(), "v1", 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if p.Page != 1 || p.TotalPages != 2 || !p.HasMore() {
		t.Errorf("first page = %+v", p)
	}

	p, err = c.ListComments(context.Background(), "v1", 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Page != 3 || p.TotalPages != 3 || p.HasMore() {
		t.Errorf("short page = %+v", p)
	}
}

func TestRefreshTransportFailureKeepsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	var expired atomic.Int32
	offline := &domain.APIError{Kind: domain.KindTransport, Message: "server is unreachable"}
	c.SetAuth(&staticTokens{token: "old"}, refresherFunc(func(ctx context.Context) error {
		return offline
	}), func() { expired.Add(1) })

	_, err := c.CurrentUser(context.Background())
	if !errors.Is(err, offline) {
		t.Fatalf("err = %v, want the refresh failure", err)
	}
	if expired.Load() != 0 {
		t.Errorf("unauthorized hook ran %d times, want 0", expired.Load())
	}
}

func TestCancelledRefreshKeepsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	ctx, cancel := context.WithCancel(context.Background())
	var expired atomic.Int32
	c.SetAuth(&staticTokens{token: "old"}, refresherFunc(func(rctx context.Context) error {
		cancel()
		<-rctx.Done()
		return rctx.Err()
	}), func() { expired.Add(1) })

	_, err := c.CurrentUser(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if expired.Load() != 0 {
		t.Errorf("unauthorized hook ran %d times, want 0", expired.Load())
	}
}

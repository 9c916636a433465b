package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmcdole/vidtube/internal/adapter"
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/video"
)

const loginBody = `{"statusCode":200,"success":true,"message":"ok","data":{
	"user":{"_id":"u1","username":"alice","fullName":"Alice"},
	"accessToken":"tok1","refreshToken":"ref1"}}`

func testConfig(t *testing.T, url string) *adapter.Config {
	t.Helper()
	cfg := adapter.DefaultConfig()
	cfg.API.BaseURL = url
	cfg.API.Retries = 0
	cfg.API.Timeout = 5 * time.Second
	cfg.Cache.Dir = t.TempDir()
	return cfg
}

func newServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"statusCode":404,"success":false,"message":"not found"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionSurvivesRestart(t *testing.T) {
	srv := newServer(t, map[string]http.HandlerFunc{
		"/users/login": func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, loginBody) },
	})
	cfg := testConfig(t, srv.URL)

	a, err := New(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if a.SessionQueries.IsAuthenticated() {
		t.Fatal("fresh app is signed in")
	}
	if _, err := a.Session.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := New(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if !b.SessionQueries.IsAuthenticated() || b.SessionQueries.AccessToken() != "tok1" {
		t.Errorf("restored session = %+v", b.SessionQueries.Session())
	}
	// Nothing but the session is persisted
	if len(b.VideoQueries.Videos()) != 0 {
		t.Error("videos survived a restart")
	}
}

func TestUnrecoverable401ExpiresSession(t *testing.T) {
	unauthorized := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"statusCode":401,"success":false,"message":"jwt expired"}`)
	}
	srv := newServer(t, map[string]http.HandlerFunc{
		"/users/login":         func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, loginBody) },
		"/videos":              unauthorized,
		"/users/refresh-token": unauthorized,
	})
	a, err := New(testConfig(t, srv.URL), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	ctx := context.Background()

	if _, err := a.Session.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	_, err = a.Videos.FetchVideos(ctx, domain.ListQuery{})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
	if got := a.SessionQueries.AuthStatus(); got != domain.AuthExpired {
		t.Errorf("auth status = %v, want expired", got)
	}
	if a.VideoQueries.Status(video.OpFetch) != request.Error {
		t.Errorf("fetch status = %v", a.VideoQueries.Status(video.OpFetch))
	}
}

func TestCancelDuringRefreshKeepsSession(t *testing.T) {
	refreshing := make(chan struct{})
	srv := newServer(t, map[string]http.HandlerFunc{
		"/users/login": func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, loginBody) },
		"/videos": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"statusCode":401,"success":false,"message":"jwt expired"}`)
		},
		"/users/refresh-token": func(w http.ResponseWriter, r *http.Request) {
			close(refreshing)
			<-r.Context().Done()
		},
	})
	a, err := New(testConfig(t, srv.URL), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.Session.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.Videos.FetchVideos(ctx, domain.ListQuery{})
		done <- err
	}()

	select {
	case <-refreshing:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh never started")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not return after cancel")
	}

	if got := a.SessionQueries.AuthStatus(); got != domain.AuthAuthenticated {
		t.Errorf("auth status = %v, want authenticated", got)
	}
	if got := a.SessionQueries.Session().RefreshToken; got != "ref1" {
		t.Errorf("refresh token = %q, want ref1", got)
	}
}

func TestRefreshRetriesRequest(t *testing.T) {
	srv := newServer(t, map[string]http.HandlerFunc{
		"/users/login": func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, loginBody) },
		"/users/refresh-token": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"statusCode":200,"success":true,"data":{"accessToken":"tok2","refreshToken":"ref2"}}`)
		},
		"/videos": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok2" {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"statusCode":401,"success":false,"message":"jwt expired"}`)
				return
			}
			io.WriteString(w, `{"statusCode":200,"success":true,"data":{"docs":[{"_id":"v1","title":"One"}],"page":1,"totalPages":1}}`)
		},
	})
	a, err := New(testConfig(t, srv.URL), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	ctx := context.Background()

	a.Session.Login(ctx, "alice@example.com", "pw")
	page, err := a.Videos.FetchVideos(ctx, domain.ListQuery{})
	if err != nil {
		t.Fatalf("FetchVideos: %v", err)
	}
	if len(page.Docs) != 1 || a.SessionQueries.AccessToken() != "tok2" {
		t.Errorf("page = %+v, token = %q", page, a.SessionQueries.AccessToken())
	}
	if !a.SessionQueries.IsAuthenticated() {
		t.Error("session lost after a successful refresh")
	}
}

func TestMetricsAreRecorded(t *testing.T) {
	srv := newServer(t, map[string]http.HandlerFunc{
		"/videos": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"statusCode":200,"success":true,"data":[]}`)
		},
	})
	reg := prometheus.NewRegistry()
	a, err := New(testConfig(t, srv.URL), Options{Registerer: reg})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.Videos.FetchVideos(context.Background(), domain.ListQuery{}); err != nil {
		t.Fatal(err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, mf := range families {
		seen[mf.GetName()] = true
	}
	for _, name := range []string{"vidtube_operations_total", "vidtube_http_responses_total"} {
		if !seen[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}
}

func TestChangesFeed(t *testing.T) {
	srv := newServer(t, map[string]http.HandlerFunc{
		"/posts": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"statusCode":200,"success":true,"data":[{"_id":"p1","content":"hi"}]}`)
		},
	})
	a, err := New(testConfig(t, srv.URL), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	changes, stop := a.Changes(4)
	defer stop()

	if _, err := a.Posts.FetchPosts(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changes:
		if c.Slice != "posts" || c.Status != request.Success {
			t.Errorf("change = %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}
}

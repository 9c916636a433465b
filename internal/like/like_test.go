package like

import (
	"context"
	"errors"
	"testing"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

type fakeRepo struct {
	ToggleLikeFn  func(ctx context.Context, kind domain.LikeKind, targetID string) (domain.LikeState, error)
	LikedVideosFn func(ctx context.Context) ([]domain.Video, error)
}

func (f *fakeRepo) ToggleLike(ctx context.Context, kind domain.LikeKind, targetID string) (domain.LikeState, error) {
	return f.ToggleLikeFn(ctx, kind, targetID)
}

func (f *fakeRepo) LikedVideos(ctx context.Context) ([]domain.Video, error) {
	return f.LikedVideosFn(ctx)
}

// flipper simulates the server: each toggle flips the stored flag
type flipper struct {
	liked     map[string]bool
	sendCount bool
	counts    map[string]int
}

func (f *flipper) toggle(_ context.Context, kind domain.LikeKind, id string) (domain.LikeState, error) {
	f.liked[id] = !f.liked[id]
	st := domain.LikeState{Kind: kind, TargetID: id, Liked: f.liked[id]}
	if f.sendCount {
		if f.liked[id] {
			f.counts[id]++
		} else {
			f.counts[id]--
		}
		st.LikesCount = f.counts[id]
		st.CountKnown = true
	}
	return st, nil
}

func TestToggleTwiceRestoresVideo(t *testing.T) {
	for _, sendCount := range []bool{false, true} {
		srv := &flipper{liked: map[string]bool{}, counts: map[string]int{"v1": 5}, sendCount: sendCount}
		st := store.NewMemory()
		st.Videos.Upsert(domain.Video{ID: "v1", LikesCount: 5})
		cmds, q := New(&fakeRepo{ToggleLikeFn: srv.toggle}, st, nil)
		ctx := context.Background()

		if _, err := cmds.ToggleVideoLike(ctx, "v1"); err != nil {
			t.Fatal(err)
		}
		v, _ := st.Videos.Get("v1")
		if !v.IsLiked || v.LikesCount != 6 || !q.IsLiked(domain.LikeVideo, "v1") {
			t.Fatalf("sendCount=%v after like: %+v", sendCount, v)
		}

		cmds.ToggleVideoLike(ctx, "v1")
		v, _ = st.Videos.Get("v1")
		if v.IsLiked || v.LikesCount != 5 {
			t.Fatalf("sendCount=%v after unlike: %+v", sendCount, v)
		}
	}
}

func TestToggleCommentAndPost(t *testing.T) {
	srv := &flipper{liked: map[string]bool{"p1": true}}
	st := store.NewMemory()
	st.Comments.Upsert(domain.Comment{ID: "c1", LikesCount: 0})
	st.Posts.Upsert(domain.Post{ID: "p1", LikesCount: 2, IsLiked: true})
	cmds, q := New(&fakeRepo{ToggleLikeFn: srv.toggle}, st, nil)
	ctx := context.Background()

	cmds.ToggleCommentLike(ctx, "c1")
	if cm, _ := st.Comments.Get("c1"); !cm.IsLiked || cm.LikesCount != 1 {
		t.Errorf("comment = %+v", cm)
	}
	cmds.TogglePostLike(ctx, "p1")
	if p, _ := st.Posts.Get("p1"); p.IsLiked || p.LikesCount != 1 {
		t.Errorf("post = %+v", p)
	}
	if q.IsLiked(domain.LikePost, "p1") {
		t.Error("IsLiked(post) = true after unlike")
	}
}

func TestToggleUncachedCommentIsNoop(t *testing.T) {
	srv := &flipper{liked: map[string]bool{}}
	st := store.NewMemory()
	st.Comments.Upsert(domain.Comment{ID: "c1", Content: "kept"})
	cmds, q := New(&fakeRepo{ToggleLikeFn: srv.toggle}, st, nil)

	got, err := cmds.ToggleCommentLike(context.Background(), "stale")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !got.Liked {
		t.Error("server state not returned")
	}
	if st.Comments.Has("stale") || st.Comments.Len() != 1 {
		t.Error("toggle inserted an uncached comment")
	}
	if cm, _ := st.Comments.Get("c1"); cm.Content != "kept" || cm.IsLiked {
		t.Errorf("unrelated comment changed: %+v", cm)
	}
	if q.Status(OpToggle) != request.Success {
		t.Errorf("status = %v", q.Status(OpToggle))
	}
}

func TestToggleFailureLeavesEntity(t *testing.T) {
	st := store.NewMemory()
	st.Videos.Upsert(domain.Video{ID: "v1", LikesCount: 5})
	repo := &fakeRepo{
		ToggleLikeFn: func(context.Context, domain.LikeKind, string) (domain.LikeState, error) {
			return domain.LikeState{}, &domain.APIError{Kind: domain.KindUnauthenticated, Status: 401, Message: "Unauthorized request"}
		},
	}
	cmds, q := New(repo, st, nil)

	if _, err := cmds.ToggleVideoLike(context.Background(), "v1"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
	if v, _ := st.Videos.Get("v1"); v.IsLiked || v.LikesCount != 5 {
		t.Errorf("video changed on failure: %+v", v)
	}
	if !errors.Is(q.Err(), domain.ErrUnauthenticated) {
		t.Errorf("Err() = %v", q.Err())
	}
}

func TestLikedVideosList(t *testing.T) {
	srv := &flipper{liked: map[string]bool{"v1": true, "v2": true}}
	st := store.NewMemory()
	repo := &fakeRepo{
		ToggleLikeFn: srv.toggle,
		LikedVideosFn: func(context.Context) ([]domain.Video, error) {
			return []domain.Video{{ID: "v1", LikesCount: 1}, {ID: "v2", LikesCount: 1}}, nil
		},
	}
	cmds, q := New(repo, st, nil)
	ctx := context.Background()

	if _, err := cmds.FetchLikedVideos(ctx); err != nil {
		t.Fatal(err)
	}
	if got := q.LikedVideos(); len(got) != 2 || !got[0].IsLiked {
		t.Fatalf("liked = %+v", got)
	}

	// Unlike drops the video, liking it again puts it first
	cmds.ToggleVideoLike(ctx, "v2")
	if got := q.LikedVideos(); len(got) != 1 || got[0].ID != "v1" {
		t.Fatalf("after unlike: %+v", got)
	}
	cmds.ToggleVideoLike(ctx, "v2")
	if got := q.LikedVideos(); len(got) != 2 || got[0].ID != "v2" {
		t.Fatalf("after relike: %+v", got)
	}

	if err := cmds.RemoveLikedVideo(ctx, "v1"); err != nil {
		t.Fatal(err)
	}
	if got := q.LikedVideos(); len(got) != 1 || got[0].ID != "v2" {
		t.Fatalf("after remove: %+v", got)
	}
	if srv.liked["v1"] {
		t.Error("server still has v1 liked")
	}
}

func TestRemoveLikedVideoTogglesBackIfNotLiked(t *testing.T) {
	srv := &flipper{liked: map[string]bool{}}
	calls := 0
	repo := &fakeRepo{
		ToggleLikeFn: func(ctx context.Context, kind domain.LikeKind, id string) (domain.LikeState, error) {
			calls++
			return srv.toggle(ctx, kind, id)
		},
	}
	cmds, _ := New(repo, store.NewMemory(), nil)

	if err := cmds.RemoveLikedVideo(context.Background(), "v9"); err != nil {
		t.Fatal(err)
	}
	if calls != 2 || srv.liked["v9"] {
		t.Errorf("calls = %d, liked = %v", calls, srv.liked["v9"])
	}
}

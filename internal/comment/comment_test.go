package comment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

type fakeRepo struct {
	ListCommentsFn  func(ctx context.Context, videoID string, page, limit int) (domain.Page[domain.Comment], error)
	AddCommentFn    func(ctx context.Context, videoID, content string) (*domain.Comment, error)
	UpdateCommentFn func(ctx context.Context, commentID, content string) (*domain.Comment, error)
	DeleteCommentFn func(ctx context.Context, commentID string) error
}

func (f *fakeRepo) ListComments(ctx context.Context, videoID string, page, limit int) (domain.Page[domain.Comment], error) {
	return f.ListCommentsFn(ctx, videoID, page, limit)
}

func (f *fakeRepo) AddComment(ctx context.Context, videoID, content string) (*domain.Comment, error) {
	return f.AddCommentFn(ctx, videoID, content)
}

func (f *fakeRepo) UpdateComment(ctx context.Context, commentID, content string) (*domain.Comment, error) {
	return f.UpdateCommentFn(ctx, commentID, content)
}

func (f *fakeRepo) DeleteComment(ctx context.Context, commentID string) error {
	return f.DeleteCommentFn(ctx, commentID)
}

// pagedComments serves totalPages pages of limit comments each
func pagedComments(totalPages int) func(context.Context, string, int, int) (domain.Page[domain.Comment], error) {
	return func(_ context.Context, videoID string, page, limit int) (domain.Page[domain.Comment], error) {
		docs := make([]domain.Comment, limit)
		for i := range docs {
			docs[i] = domain.Comment{ID: fmt.Sprintf("%s-p%d-%d", videoID, page, i), VideoID: videoID, Content: "c"}
		}
		return domain.Page[domain.Comment]{Docs: docs, Page: page, TotalPages: totalPages, Limit: limit, TotalDocs: totalPages * limit}, nil
	}
}

func TestFetchCommentsAccumulatesPages(t *testing.T) {
	repo := &fakeRepo{ListCommentsFn: pagedComments(3)}
	cmds, q := New(repo, store.NewMemory(), nil, 10)
	ctx := context.Background()

	if _, err := cmds.FetchComments(ctx, "v1", 1); err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if got := len(q.Comments()); got != 10 {
		t.Fatalf("after page 1 len = %d, want 10", got)
	}
	if !q.HasMore() {
		t.Fatal("HasMore should be true after page 1 of 3")
	}

	if _, err := cmds.FetchComments(ctx, "v1", 2); err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if got := len(q.Comments()); got != 20 {
		t.Fatalf("after page 2 len = %d, want 20", got)
	}
	if !q.HasMore() {
		t.Fatal("HasMore should be true after page 2 of 3")
	}

	if _, err := cmds.LoadMore(ctx); err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if got := len(q.Comments()); got != 30 {
		t.Fatalf("after page 3 len = %d, want 30", got)
	}
	if q.HasMore() {
		t.Fatal("HasMore should be false after the last page")
	}
	if q.Status(OpFetch) != request.Success {
		t.Errorf("status = %v, want success", q.Status(OpFetch))
	}

	// LoadMore on a complete list issues nothing
	calls := 0
	repo.ListCommentsFn = func(context.Context, string, int, int) (domain.Page[domain.Comment], error) {
		calls++
		return domain.Page[domain.Comment]{}, nil
	}
	cmds.LoadMore(ctx)
	if calls != 0 {
		t.Errorf("LoadMore on a complete list made %d requests", calls)
	}
}

func TestFetchFirstPageReplaces(t *testing.T) {
	repo := &fakeRepo{ListCommentsFn: pagedComments(3)}
	cmds, q := New(repo, store.NewMemory(), nil, 10)
	ctx := context.Background()

	cmds.FetchComments(ctx, "v1", 1)
	cmds.FetchComments(ctx, "v1", 2)
	cmds.FetchComments(ctx, "v1", 1)

	if got := len(q.Comments()); got != 10 {
		t.Errorf("len after refetching page 1 = %d, want 10", got)
	}
	if q.Cursor().Page != 1 {
		t.Errorf("cursor page = %d, want 1", q.Cursor().Page)
	}
}

func TestFetchSkippedPageIsIgnored(t *testing.T) {
	repo := &fakeRepo{ListCommentsFn: pagedComments(5)}
	cmds, q := New(repo, store.NewMemory(), nil, 10)
	ctx := context.Background()

	cmds.FetchComments(ctx, "v1", 1)
	if _, err := cmds.FetchComments(ctx, "v1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(q.Comments()); got != 10 {
		t.Errorf("len = %d, want 10 (page 3 must not append after page 1)", got)
	}
}

func TestFetchErrorKeepsCache(t *testing.T) {
	repo := &fakeRepo{ListCommentsFn: pagedComments(3)}
	cmds, q := New(repo, store.NewMemory(), nil, 10)
	ctx := context.Background()
	cmds.FetchComments(ctx, "v1", 1)

	boom := &domain.APIError{Kind: domain.KindServer, Status: 500, Message: "boom"}
	repo.ListCommentsFn = func(context.Context, string, int, int) (domain.Page[domain.Comment], error) {
		return domain.Page[domain.Comment]{}, boom
	}
	if _, err := cmds.FetchComments(ctx, "v1", 2); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("err = %v, want server error", err)
	}
	if got := len(q.Comments()); got != 10 {
		t.Errorf("len = %d, want cached 10", got)
	}
	if q.Status(OpFetch) != request.Error {
		t.Errorf("status = %v, want error", q.Status(OpFetch))
	}
	if !errors.Is(q.Err(), domain.ErrServer) {
		t.Errorf("Err() = %v", q.Err())
	}
}

func TestSwitchingVideoStartsFresh(t *testing.T) {
	repo := &fakeRepo{ListCommentsFn: pagedComments(3)}
	cmds, q := New(repo, store.NewMemory(), nil, 10)
	ctx := context.Background()

	cmds.FetchComments(ctx, "v1", 1)
	cmds.FetchComments(ctx, "v1", 2)
	cmds.FetchComments(ctx, "v2", 1)

	if q.VideoID() != "v2" {
		t.Fatalf("VideoID = %q", q.VideoID())
	}
	got := q.Comments()
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	for _, cm := range got {
		if cm.VideoID != "v2" {
			t.Fatalf("comment %s belongs to %s", cm.ID, cm.VideoID)
		}
	}
}

func TestResetDiscardsInFlightPage(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &fakeRepo{
		ListCommentsFn: func(ctx context.Context, videoID string, page, limit int) (domain.Page[domain.Comment], error) {
			close(started)
			<-release
			return pagedComments(3)(ctx, videoID, page, limit)
		},
	}
	cmds, q := New(repo, store.NewMemory(), nil, 10)

	errc := make(chan error, 1)
	go func() {
		_, err := cmds.FetchComments(context.Background(), "v1", 1)
		errc <- err
	}()
	<-started
	cmds.ResetComments()
	close(release)

	if err := <-errc; !errors.Is(err, request.ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if n := len(q.Comments()); n != 0 {
		t.Errorf("len = %d after reset, want 0", n)
	}
	if q.VideoID() != "" || q.Cursor().Loaded() {
		t.Errorf("view not reset: video %q cursor %+v", q.VideoID(), q.Cursor())
	}
	if q.Status(OpFetch) != request.Idle {
		t.Errorf("status = %v, want idle", q.Status(OpFetch))
	}
}

func TestAddComment(t *testing.T) {
	repo := &fakeRepo{
		ListCommentsFn: pagedComments(1),
		AddCommentFn: func(_ context.Context, videoID, content string) (*domain.Comment, error) {
			return &domain.Comment{ID: "new", VideoID: videoID, Content: content}, nil
		},
	}
	st := store.NewMemory()
	cmds, q := New(repo, st, nil, 10)
	ctx := context.Background()
	cmds.FetchComments(ctx, "v1", 1)

	if _, err := cmds.AddComment(ctx, "v1", "  first!  "); err != nil {
		t.Fatal(err)
	}
	got := q.Comments()
	if len(got) != 11 || got[0].ID != "new" || got[0].Content != "first!" {
		t.Fatalf("first = %+v, len %d", got[0], len(got))
	}
	if q.Cursor().TotalDocs != 11 {
		t.Errorf("TotalDocs = %d, want 11", q.Cursor().TotalDocs)
	}

	// A comment on another video is cached but not listed
	if _, err := cmds.AddComment(ctx, "v2", "elsewhere"); err != nil {
		t.Fatal(err)
	}
	if len(q.Comments()) != 11 {
		t.Errorf("comment on another video was listed")
	}
	if !st.Comments.Has("new") {
		t.Error("comment missing from table")
	}
}

func TestAddEmptyCommentIssuesNoRequest(t *testing.T) {
	repo := &fakeRepo{
		AddCommentFn: func(context.Context, string, string) (*domain.Comment, error) {
			t.Fatal("request issued for an empty comment")
			return nil, nil
		},
	}
	cmds, q := New(repo, store.NewMemory(), nil, 10)

	_, err := cmds.AddComment(context.Background(), "v1", "   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if q.Status(OpAdd) != request.Error {
		t.Errorf("status = %v, want error", q.Status(OpAdd))
	}
}

func TestUpdateCommentKeepsLikeState(t *testing.T) {
	repo := &fakeRepo{
		ListCommentsFn: func(context.Context, string, int, int) (domain.Page[domain.Comment], error) {
			return domain.Page[domain.Comment]{
				Docs: []domain.Comment{{ID: "c1", VideoID: "v1", Content: "old", LikesCount: 4, IsLiked: true}},
				Page: 1, TotalPages: 1,
			}, nil
		},
		UpdateCommentFn: func(_ context.Context, id, content string) (*domain.Comment, error) {
			return &domain.Comment{ID: id, Content: content}, nil
		},
	}
	cmds, q := New(repo, store.NewMemory(), nil, 10)
	ctx := context.Background()
	cmds.FetchComments(ctx, "v1", 1)

	updated, err := cmds.UpdateComment(ctx, "c1", "new")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Content != "new" || updated.LikesCount != 4 || !updated.IsLiked {
		t.Errorf("updated = %+v", updated)
	}
	if got := q.Comments()[0]; got.Content != "new" || got.LikesCount != 4 {
		t.Errorf("listed = %+v", got)
	}
}

func TestDeleteComment(t *testing.T) {
	repo := &fakeRepo{
		ListCommentsFn:  pagedComments(1),
		DeleteCommentFn: func(context.Context, string) error { return nil },
	}
	st := store.NewMemory()
	cmds, q := New(repo, st, nil, 10)
	ctx := context.Background()
	cmds.FetchComments(ctx, "v1", 1)

	target := q.Comments()[3].ID
	if err := cmds.DeleteComment(ctx, target); err != nil {
		t.Fatal(err)
	}
	for _, cm := range q.Comments() {
		if cm.ID == target {
			t.Fatalf("deleted comment %s still listed", target)
		}
	}
	if len(q.Comments()) != 9 || st.Comments.Has(target) {
		t.Errorf("len = %d, cached = %v", len(q.Comments()), st.Comments.Has(target))
	}

	// Unknown ids are a no-op
	if err := cmds.DeleteComment(ctx, "missing"); err != nil {
		t.Fatal(err)
	}
	if len(q.Comments()) != 9 {
		t.Errorf("len = %d after deleting unknown id", len(q.Comments()))
	}
}

func TestDeleteFailureLeavesList(t *testing.T) {
	repo := &fakeRepo{
		ListCommentsFn: pagedComments(1),
		DeleteCommentFn: func(context.Context, string) error {
			return &domain.APIError{Kind: domain.KindForbidden, Status: 403, Message: "not yours"}
		},
	}
	cmds, q := New(repo, store.NewMemory(), nil, 10)
	ctx := context.Background()
	cmds.FetchComments(ctx, "v1", 1)

	target := q.Comments()[0].ID
	if err := cmds.DeleteComment(ctx, target); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v", err)
	}
	if len(q.Comments()) != 10 {
		t.Errorf("len = %d, want 10", len(q.Comments()))
	}
}

func TestStoreResetClearsView(t *testing.T) {
	repo := &fakeRepo{ListCommentsFn: pagedComments(2)}
	st := store.NewMemory()
	cmds, q := New(repo, st, nil, 10)
	cmds.FetchComments(context.Background(), "v1", 1)

	st.Reset()

	if len(q.Comments()) != 0 || q.VideoID() != "" || q.HasMore() {
		t.Errorf("view survived reset: %d comments, video %q", len(q.Comments()), q.VideoID())
	}
}

func TestSettlementsArePublished(t *testing.T) {
	repo := &fakeRepo{ListCommentsFn: pagedComments(1)}
	st := store.NewMemory()
	changes, cancel := st.Subscribe(4)
	defer cancel()
	cmds, _ := New(repo, st, nil, 10)

	cmds.FetchComments(context.Background(), "v1", 1)

	select {
	case ch := <-changes:
		if ch.Slice != "comments" || ch.Op != OpFetch || ch.Status != request.Success {
			t.Errorf("change = %+v", ch)
		}
	default:
		t.Fatal("no change published")
	}
}

package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/comment"
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/like"
	"github.com/mmcdole/vidtube/internal/playlist"
	"github.com/mmcdole/vidtube/internal/post"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/selector"
	"github.com/mmcdole/vidtube/internal/session"
	"github.com/mmcdole/vidtube/internal/store"
	"github.com/mmcdole/vidtube/internal/subscription"
	"github.com/mmcdole/vidtube/internal/tui/components"
	"github.com/mmcdole/vidtube/internal/video"
)

// Section is a sidebar entry
type Section int

const (
	SectionVideos Section = iota
	SectionLiked
	SectionHistory
	SectionPlaylists
	SectionSubscriptions
	SectionPosts
)

var sectionNames = []string{"Videos", "Liked", "History", "Playlists", "Subscriptions", "Posts"}

func (s Section) String() string {
	return strings.ToLower(sectionNames[s])
}

// viewMode is what the main list shows
type viewMode int

const (
	modeSection viewMode = iota
	modeComments
	modePlaylist
	modeSearch
)

type inputPurpose int

const (
	inputSearch inputPurpose = iota
	inputComment
	inputPost
)

// Layout
const (
	SidebarWidth = 24
	ChromeHeight = 1
	tickInterval = 100 * time.Millisecond
)

// entry is the entity behind a list row
type entry struct {
	video    *domain.Video
	comment  *selector.CommentView
	post     *selector.PostView
	playlist *domain.Playlist
	channel  *domain.Channel
}

// Model is the Bubble Tea model for the browse UI
type Model struct {
	app     *app.App
	changes <-chan store.Change

	sidebar components.Sidebar
	list    components.ItemList
	input   components.InputModal
	purpose inputPurpose

	section    Section
	mode       viewMode
	videoID    string // comments mode
	playlistID string // playlist mode
	query      string // search mode

	entries map[string]entry

	width       int
	height      int
	ready       bool
	status      string
	statusIsErr bool
	frame       int
}

// NewModel creates the browse model. changes must come from a.Changes.
func NewModel(a *app.App, changes <-chan store.Change) Model {
	m := Model{
		app:     a,
		changes: changes,
		sidebar: components.NewSidebar(sectionNames),
		list:    components.NewItemList(),
		input:   components.NewInputModal(),
		entries: make(map[string]entry),
	}
	m.list.SetFocused(true)
	m.refresh()
	return m
}

// Init starts the change feed and loads the first section
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		WaitForChange(m.changes),
		FetchSectionCmd(m.app, SectionVideos),
		TickCmd(tickInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLayout()
		return m, nil

	case TickMsg:
		m.frame++
		m.syncSidebar()
		return m, TickCmd(tickInterval)

	case ChangeMsg:
		m.refresh()
		return m, WaitForChange(m.changes)

	case feedClosedMsg:
		return m, nil

	case StatusMsg:
		m.setStatus(string(msg), false)
		return m, nil

	case PlaybackStartedMsg:
		m.setStatus("Playing "+msg.Video.Title, false)
		return m, nil

	case ErrMsg:
		m.setStatus(describeError(msg), true)
		return m, nil

	case tea.KeyMsg:
		if m.input.IsVisible() {
			return m.handleInput(msg)
		}
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func describeError(e ErrMsg) string {
	switch {
	case errors.Is(e.Err, domain.ErrUnauthenticated):
		return e.Context + ": not signed in, run `vidtube login`"
	case errors.Is(e.Err, domain.ErrForbidden):
		return e.Context + ": not allowed"
	default:
		return e.Error()
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusIsErr = isErr
}

func (m *Model) updateLayout() {
	h := m.height - ChromeHeight
	m.sidebar.SetSize(SidebarWidth, h)
	m.list.SetSize(m.width-SidebarWidth, h)
}

func (m *Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.input, cmd, submitted = m.input.Update(msg)
	if !submitted {
		return *m, cmd
	}

	value := strings.TrimSpace(m.input.Value())
	m.input.Hide()
	switch m.purpose {
	case inputSearch:
		if value == "" {
			return *m, nil
		}
		m.query = value
		m.enterMode(modeSearch)
		return *m, nil
	case inputComment:
		return *m, AddCommentCmd(m.app, m.videoID, value)
	case inputPost:
		return *m, CreatePostCmd(m.app, value)
	}
	return *m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, Keys.Switch):
		m.sidebar.SetFocused(!m.sidebar.IsFocused())
		m.list.SetFocused(!m.sidebar.IsFocused())
		return m, nil
	case key.Matches(msg, Keys.Search):
		m.purpose = inputSearch
		m.input.Show("Search cached videos", "title...", 0)
		return m, nil
	}

	if m.sidebar.IsFocused() {
		if key.Matches(msg, Keys.Enter) {
			return m, m.openSection(Section(m.sidebar.SelectedIndex()))
		}
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Up):
		m.list.CursorUp()
	case key.Matches(msg, Keys.Down):
		if m.list.AtEnd() {
			return m, m.loadMore()
		}
		m.list.CursorDown()
	case key.Matches(msg, Keys.Home):
		m.list.Top()
	case key.Matches(msg, Keys.End):
		m.list.Bottom()
	case key.Matches(msg, Keys.Back):
		if m.mode == modeComments {
			m.app.Comments.Cancel()
		}
		m.enterMode(modeSection)
	case key.Matches(msg, Keys.Enter):
		return m, m.activate()
	case key.Matches(msg, Keys.Refresh):
		return m, m.reload()
	case key.Matches(msg, Keys.More):
		return m, m.loadMore()
	case key.Matches(msg, Keys.Like):
		return m, m.toggleLike()
	case key.Matches(msg, Keys.Subscribe):
		return m, m.toggleSubscription()
	case key.Matches(msg, Keys.Comments):
		if e, ok := m.selected(); ok && e.video != nil {
			m.videoID = e.video.ID
			m.enterMode(modeComments)
			return m, FetchCommentsCmd(m.app, m.videoID)
		}
	case key.Matches(msg, Keys.Compose):
		return m, m.compose()
	case key.Matches(msg, Keys.Delete):
		return m, m.deleteSelected()
	}
	return m, nil
}

func (m *Model) openSection(s Section) tea.Cmd {
	m.section = s
	m.sidebar.SetFocused(false)
	m.list.SetFocused(true)
	m.enterMode(modeSection)

	needsAuth := s == SectionLiked || s == SectionHistory || s == SectionPlaylists || s == SectionSubscriptions
	if needsAuth && !m.app.SessionQueries.IsAuthenticated() {
		m.setStatus("Sign in with `vidtube login` to see "+s.String(), true)
		return nil
	}
	return FetchSectionCmd(m.app, s)
}

func (m *Model) enterMode(mode viewMode) {
	m.mode = mode
	m.list.Reset()
	m.refresh()
}

func (m Model) selected() (entry, bool) {
	row, ok := m.list.Selected()
	if !ok {
		return entry{}, false
	}
	e, ok := m.entries[row.ID]
	return e, ok
}

func (m *Model) activate() tea.Cmd {
	e, ok := m.selected()
	if !ok {
		return nil
	}
	switch {
	case e.video != nil:
		return PlayCmd(m.app, *e.video)
	case e.playlist != nil:
		m.playlistID = e.playlist.ID
		m.enterMode(modePlaylist)
		return FetchPlaylistCmd(m.app, m.playlistID)
	}
	return nil
}

func (m *Model) reload() tea.Cmd {
	switch m.mode {
	case modeComments:
		return FetchCommentsCmd(m.app, m.videoID)
	case modePlaylist:
		return FetchPlaylistCmd(m.app, m.playlistID)
	case modeSearch:
		m.refresh()
		return nil
	default:
		return FetchSectionCmd(m.app, m.section)
	}
}

func (m *Model) loadMore() tea.Cmd {
	switch {
	case m.mode == modeComments && m.app.CommentQueries.HasMore():
		return LoadMoreCommentsCmd(m.app)
	case m.mode == modeSection && m.section == SectionVideos && m.app.VideoQueries.HasMore():
		return LoadMoreVideosCmd(m.app)
	}
	return nil
}

func (m *Model) requireSession(action string) bool {
	if m.app.SessionQueries.IsAuthenticated() {
		return true
	}
	m.setStatus("Sign in with `vidtube login` to "+action, true)
	return false
}

func (m *Model) toggleLike() tea.Cmd {
	e, ok := m.selected()
	if !ok || !m.requireSession("like") {
		return nil
	}
	switch {
	case e.video != nil:
		return ToggleLikeCmd(m.app, domain.LikeVideo, e.video.ID)
	case e.comment != nil:
		return ToggleLikeCmd(m.app, domain.LikeComment, e.comment.ID)
	case e.post != nil:
		return ToggleLikeCmd(m.app, domain.LikePost, e.post.ID)
	}
	return nil
}

func (m *Model) toggleSubscription() tea.Cmd {
	e, ok := m.selected()
	if !ok || !m.requireSession("subscribe") {
		return nil
	}
	switch {
	case e.video != nil && e.video.Owner.ID != "":
		return ToggleSubscriptionCmd(m.app, e.video.Owner.ID)
	case e.channel != nil:
		return ToggleSubscriptionCmd(m.app, e.channel.ID)
	}
	return nil
}

func (m *Model) compose() tea.Cmd {
	if !m.requireSession("write") {
		return nil
	}
	switch {
	case m.mode == modeComments:
		m.purpose = inputComment
		m.input.Show("Add a comment", "say something nice", 0)
	case m.mode == modeSection && m.section == SectionPosts:
		m.purpose = inputPost
		m.input.Show("New post", "what's new?", domain.MaxPostLength)
	}
	return nil
}

func (m *Model) deleteSelected() tea.Cmd {
	e, ok := m.selected()
	if !ok {
		return nil
	}
	switch {
	case e.comment != nil && e.comment.CanModify:
		return DeleteCommentCmd(m.app, e.comment.ID)
	case e.post != nil && e.post.CanModify:
		return DeletePostCmd(m.app, e.post.ID)
	case e.comment != nil || e.post != nil:
		m.setStatus("You can only delete your own content", true)
	}
	return nil
}

// sectionStatus reads the fetch state behind a section
func (m Model) sectionStatus(s Section) request.Status {
	switch s {
	case SectionVideos:
		return m.app.VideoQueries.Status(video.OpFetch)
	case SectionLiked:
		return m.app.LikeQueries.Status(like.OpFetch)
	case SectionHistory:
		return m.app.SessionQueries.Status(session.OpHistory)
	case SectionPlaylists:
		return m.app.PlaylistQueries.Status(playlist.OpFetch)
	case SectionSubscriptions:
		return m.app.SubscriptionQueries.Status(subscription.OpFetchSubscribed)
	case SectionPosts:
		return m.app.PostQueries.Status(post.OpFetch)
	}
	return request.Idle
}

func (m *Model) syncSidebar() {
	m.sidebar.SetSpinnerFrame(m.frame)
	for i := range sectionNames {
		st := m.sectionStatus(Section(i))
		m.sidebar.SetState(i, st == request.Pending, st == request.Error)
	}
}

// commentsPending reports whether the comment list is loading
func (m Model) commentsPending() bool {
	return m.app.CommentQueries.Status(comment.OpFetch) == request.Pending
}

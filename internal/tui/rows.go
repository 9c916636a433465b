package tui

import (
	"fmt"
	"strings"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/selector"
	"github.com/mmcdole/vidtube/internal/tui/components"
	"github.com/mmcdole/vidtube/internal/tui/styles"
	"github.com/mmcdole/vidtube/internal/video"
)

// refresh rebuilds the list rows from the current slice state
func (m *Model) refresh() {
	m.entries = make(map[string]entry)
	sess := m.app.SessionQueries.Session()

	var rows []components.Row
	var title, empty string

	switch m.mode {
	case modeComments:
		v, _ := m.app.VideoQueries.Video(m.videoID)
		title = "Comments · " + v.Title
		empty = "No comments yet. Press a to add one."
		if m.commentsPending() && len(m.app.CommentQueries.Comments()) == 0 {
			empty = "Loading comments..."
		}
		for _, cv := range selector.CommentViews(sess, m.app.CommentQueries.Comments()) {
			cv := cv
			m.entries[cv.ID] = entry{comment: &cv}
			rows = append(rows, commentRow(cv))
		}
		if m.app.CommentQueries.HasMore() {
			title += " (more with n)"
		}

	case modePlaylist:
		p, _ := m.app.PlaylistQueries.Playlist(m.playlistID)
		title = "Playlist · " + p.Name
		empty = "This playlist is empty"
		rows = m.videoRows(sess, m.app.PlaylistQueries.Videos(m.playlistID))

	case modeSearch:
		title = fmt.Sprintf("Search · %q", m.query)
		empty = "No cached video matches"
		for _, r := range m.app.Search.Videos(m.query) {
			v := r.Video
			m.entries[v.ID] = entry{video: &v}
			row := videoRow(selector.NewVideoView(sess, v))
			row.Matched = r.MatchedIndexes
			rows = append(rows, row)
		}

	default:
		title, empty, rows = m.sectionRows(sess)
	}

	m.list.SetTitle(title, empty)
	m.list.SetRows(rows)
}

func (m *Model) sectionRows(sess domain.Session) (string, string, []components.Row) {
	switch m.section {
	case SectionLiked:
		return "Liked videos", "No liked videos", m.videoRows(sess, m.app.LikeQueries.LikedVideos())

	case SectionHistory:
		return "Watch history", "Nothing watched yet", m.videoRows(sess, m.app.SessionQueries.WatchHistory())

	case SectionPlaylists:
		var rows []components.Row
		for _, p := range m.app.PlaylistQueries.Playlists() {
			p := p
			m.entries[p.ID] = entry{playlist: &p}
			rows = append(rows, components.Row{
				ID:    p.ID,
				Title: p.Name,
				Meta:  fmt.Sprintf("%d videos", len(p.VideoIDs)),
			})
		}
		return "Playlists", "No playlists", rows

	case SectionSubscriptions:
		var rows []components.Row
		for _, ch := range m.app.SubscriptionQueries.SubscribedChannels() {
			ch := ch
			m.entries[ch.ID] = entry{channel: &ch}
			rows = append(rows, channelRow(ch))
		}
		return "Subscriptions", "Not subscribed to any channel", rows

	case SectionPosts:
		var rows []components.Row
		for _, pv := range selector.PostViews(sess, m.app.PostQueries.Posts()) {
			pv := pv
			m.entries[pv.ID] = entry{post: &pv}
			rows = append(rows, postRow(pv))
		}
		return "Posts", "No posts. Press a to write one.", rows
	}

	title := "Videos"
	c := m.app.VideoQueries.Cursor()
	if c.Loaded() && c.TotalPages > 0 {
		title = fmt.Sprintf("Videos · page %d of %d", c.Page, c.TotalPages)
	}
	empty := "No videos"
	if m.app.VideoQueries.Status(video.OpFetch) == request.Pending {
		empty = "Loading videos..."
	}
	return title, empty, m.videoRows(sess, m.app.VideoQueries.Videos())
}

func (m *Model) videoRows(sess domain.Session, videos []domain.Video) []components.Row {
	rows := make([]components.Row, 0, len(videos))
	for _, v := range videos {
		v := v
		m.entries[v.ID] = entry{video: &v}
		rows = append(rows, videoRow(selector.NewVideoView(sess, v)))
	}
	return rows
}

func videoRow(v selector.VideoView) components.Row {
	meta := []string{}
	if v.Liked {
		meta = append(meta, styles.LikedChar)
	}
	if v.Owner.Username != "" {
		meta = append(meta, v.Owner.Username)
	}
	meta = append(meta, v.Views+" views", v.Duration)
	return components.Row{ID: v.ID, Title: v.Title, Meta: strings.Join(meta, " · ")}
}

func commentRow(c selector.CommentView) components.Row {
	author := c.Owner.Username
	if c.IsOwner {
		author = styles.OwnChar + " " + author
	}
	meta := []string{author, c.Posted}
	if c.LikesCount > 0 || c.Liked {
		likes := selector.FormatCount(c.LikesCount)
		if c.Liked {
			likes = styles.LikedChar + " " + likes
		}
		meta = append(meta, likes)
	}
	return components.Row{ID: c.ID, Title: firstLine(c.Content), Meta: strings.Join(meta, " · ")}
}

func postRow(p selector.PostView) components.Row {
	author := p.Owner.Username
	if p.IsOwner {
		author = styles.OwnChar + " " + author
	}
	posted := p.Posted
	if p.Edited {
		posted += " (edited)"
	}
	likes := selector.FormatCount(p.LikesCount)
	if p.Liked {
		likes = styles.LikedChar + " " + likes
	}
	return components.Row{ID: p.ID, Title: firstLine(p.Content), Meta: strings.Join([]string{author, posted, likes}, " · ")}
}

func channelRow(ch domain.Channel) components.Row {
	name := ch.Username
	if ch.IsSubscribed {
		name = styles.SubscribedChar + " " + name
	}
	meta := selector.FormatCount(ch.SubscribersCount) + " subscribers"
	if ch.FullName != "" {
		meta = ch.FullName + " · " + meta
	}
	return components.Row{ID: ch.ID, Title: name, Meta: meta}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

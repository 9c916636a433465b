package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/paging"
	"github.com/mmcdole/vidtube/internal/selector"
)

type videoOutput struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Owner    string `json:"owner,omitempty"`
	Views    int    `json:"views"`
	Likes    int    `json:"likes"`
	Liked    bool   `json:"liked"`
	Duration string `json:"duration"`
	Uploaded string `json:"uploaded,omitempty"`
	URL      string `json:"url,omitempty"`
}

type commentOutput struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Likes     int    `json:"likes"`
	Liked     bool   `json:"liked"`
	CanModify bool   `json:"can_modify"`
	Posted    string `json:"posted,omitempty"`
}

type postOutput struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Likes     int    `json:"likes"`
	Liked     bool   `json:"liked"`
	Edited    bool   `json:"edited"`
	CanModify bool   `json:"can_modify"`
	Posted    string `json:"posted,omitempty"`
}

type channelOutput struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name,omitempty"`
	Subscribers int    `json:"subscribers"`
	Subscribed  bool   `json:"subscribed"`
}

type playlistOutput struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Videos      int           `json:"video_count"`
	Items       []videoOutput `json:"videos,omitempty"`
}

type pageOutput[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
	TotalDocs  int  `json:"total_docs"`
	HasMore    bool `json:"has_more"`
}

// pageCursor describes a single fetched page
func pageCursor[T any](p domain.Page[T]) *paging.Cursor {
	return &paging.Cursor{Page: p.Page, TotalPages: p.TotalPages, Limit: p.Limit, TotalDocs: p.TotalDocs}
}

func newVideoOutput(v selector.VideoView) videoOutput {
	return videoOutput{
		ID:       v.ID,
		Title:    v.Title,
		Owner:    v.Owner.Username,
		Views:    v.Video.Views,
		Likes:    v.LikesCount,
		Liked:    v.Liked,
		Duration: v.Duration,
		Uploaded: v.Uploaded,
		URL:      v.VideoURL,
	}
}

func videoOutputs(sess domain.Session, videos []domain.Video) []videoOutput {
	views := selector.VideoViews(sess, videos)
	out := make([]videoOutput, len(views))
	for i, v := range views {
		out[i] = newVideoOutput(v)
	}
	return out
}

func printVideos(cmd *cobra.Command, asJSON bool, sess domain.Session, videos []domain.Video, cursor *paging.Cursor) error {
	out := videoOutputs(sess, videos)
	if asJSON {
		if cursor == nil {
			return writeJSON(cmd, out)
		}
		return writeJSON(cmd, pageOutput[videoOutput]{
			Items:      out,
			Page:       cursor.Page,
			TotalPages: cursor.TotalPages,
			TotalDocs:  cursor.TotalDocs,
			HasMore:    cursor.HasMore(),
		})
	}

	w := cmd.OutOrStdout()
	if len(out) == 0 {
		fmt.Fprintln(w, "No videos")
		return nil
	}
	rows := make([][]string, len(out))
	for i, v := range out {
		title := v.Title
		if v.Liked {
			title = "♥ " + title
		}
		rows[i] = []string{v.ID, title, v.Owner, selector.FormatCount(v.Views), v.Duration, v.Uploaded}
	}
	fmt.Fprintln(w, renderTable(w,
		[]string{"ID", "Title", "Owner", "Views", "Length", "Uploaded"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	if cursor != nil && cursor.Loaded() {
		fmt.Fprintf(w, "Page %d of %d (%d videos)\n", cursor.Page, cursor.TotalPages, cursor.TotalDocs)
	}
	return nil
}

func printComments(cmd *cobra.Command, asJSON bool, sess domain.Session, comments []domain.Comment, cursor *paging.Cursor) error {
	views := selector.CommentViews(sess, comments)
	out := make([]commentOutput, len(views))
	for i, c := range views {
		out[i] = commentOutput{
			ID:        c.ID,
			Author:    c.Owner.Username,
			Content:   c.Content,
			Likes:     c.LikesCount,
			Liked:     c.Liked,
			CanModify: c.CanModify,
			Posted:    c.Posted,
		}
	}
	if asJSON {
		return writeJSON(cmd, pageOutput[commentOutput]{
			Items:      out,
			Page:       cursor.Page,
			TotalPages: cursor.TotalPages,
			TotalDocs:  cursor.TotalDocs,
			HasMore:    cursor.HasMore(),
		})
	}

	w := cmd.OutOrStdout()
	if len(out) == 0 {
		fmt.Fprintln(w, "No comments")
		return nil
	}
	rows := make([][]string, len(out))
	for i, c := range out {
		rows[i] = []string{c.ID, c.Author, c.Content, likesLabel(c.Likes, c.Liked), c.Posted}
	}
	fmt.Fprintln(w, renderTable(w,
		[]string{"ID", "Author", "Comment", "Likes", "Posted"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(w, "Page %d of %d (%d comments)\n", cursor.Page, cursor.TotalPages, cursor.TotalDocs)
	return nil
}

func printPosts(cmd *cobra.Command, asJSON bool, sess domain.Session, posts []domain.Post) error {
	views := selector.PostViews(sess, posts)
	out := make([]postOutput, len(views))
	for i, p := range views {
		out[i] = postOutput{
			ID:        p.ID,
			Author:    p.Owner.Username,
			Content:   p.Content,
			Likes:     p.LikesCount,
			Liked:     p.Liked,
			Edited:    p.Edited,
			CanModify: p.CanModify,
			Posted:    p.Posted,
		}
	}
	if asJSON {
		return writeJSON(cmd, out)
	}

	w := cmd.OutOrStdout()
	if len(out) == 0 {
		fmt.Fprintln(w, "No posts")
		return nil
	}
	rows := make([][]string, len(out))
	for i, p := range out {
		posted := p.Posted
		if p.Edited {
			posted += " (edited)"
		}
		rows[i] = []string{p.ID, p.Author, p.Content, likesLabel(p.Likes, p.Liked), posted}
	}
	fmt.Fprintln(w, renderTable(w,
		[]string{"ID", "Author", "Post", "Likes", "Posted"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func printChannels(cmd *cobra.Command, asJSON bool, channels []domain.Channel) error {
	out := make([]channelOutput, len(channels))
	for i, ch := range channels {
		out[i] = channelOutput{
			ID:          ch.ID,
			Username:    ch.Username,
			FullName:    ch.FullName,
			Subscribers: ch.SubscribersCount,
			Subscribed:  ch.IsSubscribed,
		}
	}
	if asJSON {
		return writeJSON(cmd, out)
	}

	w := cmd.OutOrStdout()
	if len(out) == 0 {
		fmt.Fprintln(w, "No channels")
		return nil
	}
	rows := make([][]string, len(out))
	for i, ch := range out {
		rows[i] = []string{ch.ID, ch.Username, ch.FullName, selector.FormatCount(ch.Subscribers), yesNo(ch.Subscribed)}
	}
	fmt.Fprintln(w, renderTable(w,
		[]string{"ID", "Username", "Name", "Subscribers", "Subscribed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func printPlaylists(cmd *cobra.Command, asJSON bool, playlists []domain.Playlist) error {
	out := make([]playlistOutput, len(playlists))
	for i, p := range playlists {
		out[i] = playlistOutput{ID: p.ID, Name: p.Name, Description: p.Description, Videos: len(p.VideoIDs)}
	}
	if asJSON {
		return writeJSON(cmd, out)
	}

	w := cmd.OutOrStdout()
	if len(out) == 0 {
		fmt.Fprintln(w, "No playlists")
		return nil
	}
	rows := make([][]string, len(out))
	for i, p := range out {
		rows[i] = []string{p.ID, p.Name, strconv.Itoa(p.Videos), p.Description}
	}
	fmt.Fprintln(w, renderTable(w,
		[]string{"ID", "Name", "Videos", "Description"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func likesLabel(n int, liked bool) string {
	s := selector.FormatCount(n)
	if liked {
		return "♥ " + s
	}
	return s
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

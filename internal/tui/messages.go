package tui

import (
	"time"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/store"
)

// ErrMsg represents a failed operation
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ChangeMsg signals that a slice settled an operation
type ChangeMsg struct {
	store.Change
}

// StatusMsg reports a completed action in the footer
type StatusMsg string

// PlaybackStartedMsg signals that the player was launched
type PlaybackStartedMsg struct {
	Video domain.Video
}

// TickMsg drives the loading spinner
type TickMsg time.Time

type feedClosedMsg struct{}

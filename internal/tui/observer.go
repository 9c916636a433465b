package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vidtube/internal/store"
)

// WaitForChange delivers the next settlement from the store's change feed.
// The model re-issues it after every ChangeMsg.
func WaitForChange(ch <-chan store.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return ChangeMsg{Change: c}
	}
}

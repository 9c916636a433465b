package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the browser's key bindings
type KeyMap struct {
	Up, Down, Home, End key.Binding
	Enter, Back, Switch key.Binding

	Quit, Search, Refresh, More key.Binding
	Like, Subscribe             key.Binding
	Comments, Compose, Delete   key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap is vim-flavoured; arrows work too.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     bind("k/↑", "up", "k", "up"),
		Down:   bind("j/↓", "down", "j", "down"),
		Home:   bind("g", "top", "g", "home"),
		End:    bind("G", "bottom", "G", "end"),
		Enter:  bind("enter", "open/play", "enter"),
		Back:   bind("esc", "back", "esc", "backspace"),
		Switch: bind("tab", "switch pane", "tab"),

		Quit:      bind("q", "quit", "q", "ctrl+c"),
		Search:    bind("/", "search", "/"),
		Refresh:   bind("r", "refresh", "r"),
		More:      bind("n", "load more", "n"),
		Like:      bind("l", "like", "l"),
		Subscribe: bind("s", "subscribe", "s"),
		Comments:  bind("c", "comments", "c"),
		Compose:   bind("a", "write", "a"),
		Delete:    bind("x", "delete", "x"),
	}
}

var Keys = DefaultKeyMap()

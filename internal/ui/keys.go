package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	resolve key.Binding
	queue   key.Binding
	back    key.Binding
	confirm key.Binding
	cancel  key.Binding
	again   key.Binding
	exit    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		resolve: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "resolve")),
		queue:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "queue")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		again:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "another playlist")),
		exit:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// forView lists the bindings shown in the help line of v.
func (k keyMap) forView(v ViewState) []key.Binding {
	switch v {
	case InputView:
		return []key.Binding{k.resolve, k.quit}
	case TrackListView:
		return []key.Binding{k.queue, k.back, k.quit}
	case ConfirmView:
		return []key.Binding{k.confirm, k.cancel}
	case ResultView:
		return []key.Binding{k.again, k.exit}
	default:
		return []key.Binding{k.quit}
	}
}

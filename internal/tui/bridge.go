package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/artpar/coinfav/internal/observable"
)

// WaitFor returns a command that blocks until sub delivers its next value and
// turns it into a message with wrap. A closed subscription yields no message,
// which ends the loop. The receiver re-issues WaitFor after each message.
func WaitFor[T any](sub *observable.Subscription[T], wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-sub.C()
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/seedit/seedit-challenge/internal/event"
)

// refreshBuffer bounds pending refresh signals. Refreshes coalesce, so a
// full buffer loses nothing.
const refreshBuffer = 1

// Listener forwards coordinator events from a bus into a Bubble Tea program.
//
// Bus handlers run on whatever goroutine published, which includes the
// program's own Update when it submits. Handlers therefore never block:
// they post into a buffered channel that Wait drains.
type Listener struct {
	bus     *event.Bus
	subIDs  []string
	refresh chan struct{}
}

// Listen subscribes to head and depth changes on bus.
func Listen(bus *event.Bus) *Listener {
	l := &Listener{bus: bus, refresh: make(chan struct{}, refreshBuffer)}
	notify := func(event.Event) {
		select {
		case l.refresh <- struct{}{}:
		default:
		}
	}
	l.subIDs = []string{
		bus.Subscribe(event.TypeChallengeHeadChange, notify),
		bus.Subscribe(event.TypeQueueDepthChanged, notify),
	}
	return l
}

// Wait returns a command that resolves to a RefreshMsg on the next change.
func (l *Listener) Wait() tea.Cmd {
	return func() tea.Msg {
		<-l.refresh
		return RefreshMsg{}
	}
}

// Close removes the bus subscriptions.
func (l *Listener) Close() {
	for _, id := range l.subIDs {
		l.bus.Unsubscribe(id)
	}
	l.subIDs = nil
}

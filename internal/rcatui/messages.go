// Package rcatui renders a live investigation as a terminal UI: routing
// decision, hypotheses with their confidence bars, sub-investigator activity,
// and the final verdict, fed by the same progress-event stream the HTTP API
// serves over SSE.
package rcatui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fourkites/rca-core/internal/rcacore"
)

// eventMsg wraps one progress event for the Bubble Tea update loop.
type eventMsg struct {
	event rcacore.Event
	ok    bool
}

// streamClosedMsg is sent once the event channel is drained and closed.
type streamClosedMsg struct{}

// waitForEvent returns a tea.Cmd that blocks on the next event from ch.
func waitForEvent(ch <-chan rcacore.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: event, ok: true}
	}
}

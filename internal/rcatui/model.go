package rcatui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fourkites/rca-core/internal/rcacore"
)

// hypothesisView is the display state for one hypothesis, updated in place as
// hypothesis_update events arrive.
type hypothesisView struct {
	id          string
	description string
	category    string
	confidence  float64
	status      string
	order       int
}

// agentView tracks one sub-investigator's visible activity.
type agentView struct {
	agentID        string
	hypothesisID   string
	lastAction     string
	evidenceCount  int
	terminalReason string
	order          int
}

// Model is the Bubble Tea model for watching one investigation.
type Model struct {
	eventCh <-chan rcacore.Event
	spinner spinner.Model

	investigationID string
	intent          string
	domain          string
	phase           string
	progressPercent int

	hypotheses   map[string]*hypothesisView
	hypoOrder    int
	agents       map[string]*agentView
	agentOrder   int

	verdict    *rcacore.Event
	errMessage string
	done       bool
	quitting   bool

	width, height int
}

// New builds a Model that renders events read from ch.
func New(ch <-chan rcacore.Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = phaseStyle
	return Model{
		eventCh:    ch,
		spinner:    sp,
		hypotheses: make(map[string]*hypothesisView),
		agents:     make(map[string]*agentView),
		phase:      "starting",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.eventCh))
}

// applyEvent mutates the model in place from one progress event. It never
// blocks and never errors: unrecognized types are ignored so the renderer
// stays forward-compatible with new event fields.
func (m *Model) applyEvent(e rcacore.Event) {
	switch e.Type {
	case rcacore.EventStarted:
		m.investigationID = e.InvestigationID
	case rcacore.EventRouted:
		m.intent = e.Intent
		m.domain = e.Domain
		m.phase = "routing"
	case rcacore.EventIdentifiers:
		m.phase = "seeding"
	case rcacore.EventHypothesis:
		m.hypoOrder++
		m.hypotheses[e.HypothesisID] = &hypothesisView{
			id:          e.HypothesisID,
			description: e.Description,
			category:    e.Category,
			confidence:  e.Confidence,
			status:      "open",
			order:       m.hypoOrder,
		}
		m.phase = "forming"
	case rcacore.EventHypothesisUpdate:
		if h, ok := m.hypotheses[e.HypothesisID]; ok {
			h.confidence = e.Confidence
			h.status = e.Status
		}
	case rcacore.EventSubAgentSpawn:
		m.agentOrder++
		m.agents[e.AgentID] = &agentView{
			agentID:      e.AgentID,
			hypothesisID: e.HypothesisID,
			lastAction:   "spawned",
			order:        m.agentOrder,
		}
		m.phase = "probing"
	case rcacore.EventSubAgentAction:
		if a, ok := m.agents[e.AgentID]; ok {
			a.lastAction = e.Source + "/" + e.Capability
		}
	case rcacore.EventEvidence:
		if a, ok := m.agents[e.AgentID]; ok {
			a.evidenceCount++
			a.lastAction = e.Source + "/" + e.Capability + " -> " + e.Outcome
		}
	case rcacore.EventSubAgentDone:
		if a, ok := m.agents[e.AgentID]; ok {
			a.terminalReason = e.TerminalReason
		}
	case rcacore.EventHeartbeat:
		m.phase = e.Phase
		m.progressPercent = e.ProgressPercent
	case rcacore.EventVerdict:
		ev := e
		m.verdict = &ev
		m.phase = "synthesizing"
	case rcacore.EventError:
		m.errMessage = e.Message
		m.done = true
	case rcacore.EventComplete:
		m.progressPercent = 100
		m.phase = "done"
		m.done = true
	}
}

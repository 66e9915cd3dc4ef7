package rcatui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourkites/rca-core/internal/rcacore"
)

func TestNew_InitializesEmptyMaps(t *testing.T) {
	ch := make(chan rcacore.Event)
	m := New(ch)

	assert.Equal(t, "starting", m.phase)
	assert.Empty(t, m.hypotheses)
	assert.Empty(t, m.agents)
}

func TestApplyEvent_Started_SetsInvestigationID(t *testing.T) {
	m := New(make(chan rcacore.Event))

	m.applyEvent(rcacore.Event{Type: rcacore.EventStarted, InvestigationID: "inv-1"})

	assert.Equal(t, "inv-1", m.investigationID)
}

func TestApplyEvent_Routed_SetsIntentDomainAndPhase(t *testing.T) {
	m := New(make(chan rcacore.Event))

	m.applyEvent(rcacore.Event{Type: rcacore.EventRouted, Intent: "tracking_issue", Domain: "ground"})

	assert.Equal(t, "tracking_issue", m.intent)
	assert.Equal(t, "ground", m.domain)
	assert.Equal(t, "routing", m.phase)
}

func TestApplyEvent_Hypothesis_AddsOrderedEntry(t *testing.T) {
	m := New(make(chan rcacore.Event))

	m.applyEvent(rcacore.Event{Type: rcacore.EventHypothesis, HypothesisID: "hyp-1", Description: "carrier outage", Confidence: 0.4})
	m.applyEvent(rcacore.Event{Type: rcacore.EventHypothesis, HypothesisID: "hyp-2", Description: "subscription inactive", Confidence: 0.2})

	require.Len(t, m.hypotheses, 2)
	assert.Equal(t, 1, m.hypotheses["hyp-1"].order)
	assert.Equal(t, 2, m.hypotheses["hyp-2"].order)
}

func TestApplyEvent_HypothesisUpdate_MutatesExistingEntry(t *testing.T) {
	m := New(make(chan rcacore.Event))
	m.applyEvent(rcacore.Event{Type: rcacore.EventHypothesis, HypothesisID: "hyp-1", Confidence: 0.3})

	m.applyEvent(rcacore.Event{Type: rcacore.EventHypothesisUpdate, HypothesisID: "hyp-1", Confidence: 0.9, Status: "confirmed"})

	assert.Equal(t, 0.9, m.hypotheses["hyp-1"].confidence)
	assert.Equal(t, "confirmed", m.hypotheses["hyp-1"].status)
}

func TestApplyEvent_HypothesisUpdate_IgnoresUnknownHypothesis(t *testing.T) {
	m := New(make(chan rcacore.Event))

	assert.NotPanics(t, func() {
		m.applyEvent(rcacore.Event{Type: rcacore.EventHypothesisUpdate, HypothesisID: "missing", Confidence: 0.9})
	})
	assert.Empty(t, m.hypotheses)
}

func TestApplyEvent_SubAgentSpawnAndEvidence_TrackAgentState(t *testing.T) {
	m := New(make(chan rcacore.Event))
	m.applyEvent(rcacore.Event{Type: rcacore.EventSubAgentSpawn, AgentID: "agent-1", HypothesisID: "hyp-1"})

	m.applyEvent(rcacore.Event{Type: rcacore.EventEvidence, AgentID: "agent-1", Source: "platform", Capability: "load-lookup-by-id", Outcome: "ok"})

	agent := m.agents["agent-1"]
	require.NotNil(t, agent)
	assert.Equal(t, 1, agent.evidenceCount)
	assert.Equal(t, "platform/load-lookup-by-id -> ok", agent.lastAction)
	assert.Equal(t, "probing", m.phase)
}

func TestApplyEvent_SubAgentDone_RecordsTerminalReason(t *testing.T) {
	m := New(make(chan rcacore.Event))
	m.applyEvent(rcacore.Event{Type: rcacore.EventSubAgentSpawn, AgentID: "agent-1"})

	m.applyEvent(rcacore.Event{Type: rcacore.EventSubAgentDone, AgentID: "agent-1", TerminalReason: "confirmed"})

	assert.Equal(t, "confirmed", m.agents["agent-1"].terminalReason)
}

func TestApplyEvent_Heartbeat_UpdatesPhaseAndProgress(t *testing.T) {
	m := New(make(chan rcacore.Event))

	m.applyEvent(rcacore.Event{Type: rcacore.EventHeartbeat, Phase: "probing", ProgressPercent: 42})

	assert.Equal(t, "probing", m.phase)
	assert.Equal(t, 42, m.progressPercent)
}

func TestApplyEvent_Verdict_StoresVerdictAndPhase(t *testing.T) {
	m := New(make(chan rcacore.Event))

	m.applyEvent(rcacore.Event{Type: rcacore.EventVerdict, RootCause: "carrier webhook outage", Confidence: 0.9})

	require.NotNil(t, m.verdict)
	assert.Equal(t, "carrier webhook outage", m.verdict.RootCause)
	assert.Equal(t, "synthesizing", m.phase)
}

func TestApplyEvent_Error_MarksDone(t *testing.T) {
	m := New(make(chan rcacore.Event))

	m.applyEvent(rcacore.Event{Type: rcacore.EventError, Message: "boom"})

	assert.Equal(t, "boom", m.errMessage)
	assert.True(t, m.done)
}

func TestApplyEvent_Complete_SetsFullProgress(t *testing.T) {
	m := New(make(chan rcacore.Event))

	m.applyEvent(rcacore.Event{Type: rcacore.EventComplete})

	assert.Equal(t, 100, m.progressPercent)
	assert.Equal(t, "done", m.phase)
	assert.True(t, m.done)
}

func TestApplyEvent_UnknownEventType_IsIgnored(t *testing.T) {
	m := New(make(chan rcacore.Event))

	assert.NotPanics(t, func() {
		m.applyEvent(rcacore.Event{Type: rcacore.EventType("not_a_real_type")})
	})
}

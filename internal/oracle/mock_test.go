package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourkites/rca-core/internal/rcacore"
)

func TestMockOracle_ExtractIdentifiers(t *testing.T) {
	m := NewMockOracle()

	ids, err := m.ExtractIdentifiers(context.Background(), "load ABCD1234 is not tracking, tracking id 987654321")

	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", ids[rcacore.IDLoadNumber])
	assert.Equal(t, "987654321", ids[rcacore.IDTrackingID])
}

func TestMockOracle_ExtractIdentifiers_NoMatches(t *testing.T) {
	m := NewMockOracle()

	ids, err := m.ExtractIdentifiers(context.Background(), "nothing identifiable here")

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMockOracle_ProposeHypotheses_DefaultsWhenUnset(t *testing.T) {
	m := NewMockOracle()

	hyps, err := m.ProposeHypotheses(context.Background(), rcacore.NewIdentifierBag(), nil)

	require.NoError(t, err)
	// DefaultHypotheses mints a fresh ID per call, so compare everything but the IDs.
	want := rcacore.DefaultHypotheses(nil)
	require.Len(t, hyps, len(want))
	for i := range want {
		want[i].ID = hyps[i].ID
	}
	assert.Equal(t, want, hyps)
}

func TestMockOracle_ProposeHypotheses_Override(t *testing.T) {
	m := &MockOracle{Hypotheses: []rcacore.Hypothesis{{ID: "custom-1"}}}

	hyps, err := m.ProposeHypotheses(context.Background(), rcacore.NewIdentifierBag(), nil)

	require.NoError(t, err)
	assert.Equal(t, []rcacore.Hypothesis{{ID: "custom-1"}}, hyps)
}

func TestMockOracle_Rescore(t *testing.T) {
	m := NewMockOracle()
	h := rcacore.Hypothesis{Confidence: 0.5}

	ok, err := m.Rescore(context.Background(), h, rcacore.Finding{Outcome: rcacore.OutcomeOK})
	require.NoError(t, err)
	assert.Equal(t, rcacore.SupportHintSupport, ok.Verdict)
	assert.InDelta(t, 0.75, ok.NewConfidence, 0.0001)

	failed, err := m.Rescore(context.Background(), h, rcacore.Finding{Outcome: rcacore.OutcomeNotFound})
	require.NoError(t, err)
	assert.Equal(t, rcacore.SupportHintContradict, failed.Verdict)
	assert.InDelta(t, 0.3, failed.NewConfidence, 0.0001)

	skipped, err := m.Rescore(context.Background(), h, rcacore.Finding{Outcome: rcacore.OutcomeSkipped})
	require.NoError(t, err)
	assert.Equal(t, rcacore.SupportHintUnknown, skipped.Verdict)
	assert.Equal(t, h.Confidence, skipped.NewConfidence)
}

func TestMockOracle_DecideNext_PrefersSuggestedProbes(t *testing.T) {
	m := NewMockOracle()
	h := rcacore.Hypothesis{
		SuggestedProbes: []rcacore.ProbeDescriptor{{SourceName: "platform", CapabilityName: "load-lookup-by-id"}},
	}

	action, err := m.DecideNext(context.Background(), h, nil, []string{"logs/structured-search"})

	require.NoError(t, err)
	assert.Equal(t, rcacore.ActionProbe, action.Type)
	assert.Equal(t, "platform", action.Source)
}

func TestMockOracle_DecideNext_FallsBackToAvailableSources(t *testing.T) {
	m := NewMockOracle()
	h := rcacore.Hypothesis{}

	action, err := m.DecideNext(context.Background(), h, nil, []string{"logs/structured-search"})

	require.NoError(t, err)
	assert.Equal(t, rcacore.ActionProbe, action.Type)
	assert.Equal(t, "logs", action.Source)
	assert.Equal(t, "structured-search", action.Capability)
}

func TestMockOracle_DecideNext_ConcludesWhenExhausted(t *testing.T) {
	m := NewMockOracle()
	h := rcacore.Hypothesis{
		SuggestedProbes: []rcacore.ProbeDescriptor{{SourceName: "platform", CapabilityName: "load-lookup-by-id"}},
	}
	evidence := []rcacore.Finding{{SourceName: "platform", CapabilityName: "load-lookup-by-id"}}

	action, err := m.DecideNext(context.Background(), h, evidence, nil)

	require.NoError(t, err)
	assert.Equal(t, rcacore.ActionConclude, action.Type)
}

func TestMockOracle_Synthesize_PicksHighestConfidence(t *testing.T) {
	m := NewMockOracle()
	hyps := []rcacore.Hypothesis{
		{Description: "low", Confidence: 0.2, Category: rcacore.CategoryUnknown},
		{Description: "high", Confidence: 0.9, Category: rcacore.CategoryLoadNotFound},
	}

	verdict, err := m.Synthesize(context.Background(), hyps, nil)

	require.NoError(t, err)
	assert.Equal(t, "high", verdict.RootCauseText)
	assert.Equal(t, rcacore.CategoryLoadNotFound, verdict.RootCauseCategory)
}

func TestMockOracle_Synthesize_NoHypothesesNeedsHuman(t *testing.T) {
	m := NewMockOracle()

	verdict, err := m.Synthesize(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.True(t, verdict.NeedsHuman)
}

func TestMockOracle_Synthesize_Override(t *testing.T) {
	want := &rcacore.FinalVerdict{RootCauseText: "override"}
	m := &MockOracle{Verdict: want}

	verdict, err := m.Synthesize(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, *want, verdict)
}

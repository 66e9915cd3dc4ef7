package rcacore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_TrackingIssue(t *testing.T) {
	incident := Incident{Description: "Load is not tracking, can't find any location updates since pickup."}

	decision := Route(incident, 0.85, 0.60)

	assert.Equal(t, IntentTrackingIssue, decision.Intent)
	assert.True(t, decision.Confidence > 0)
}

func TestRoute_DomainFromModeHint(t *testing.T) {
	incident := Incident{Description: "shipment not tracking", ModeHint: "ocean"}

	decision := Route(incident, 0.85, 0.60)

	assert.Equal(t, DomainOcean, decision.Domain)
	assert.Contains(t, decision.MatchedPatterns, "mode_hint:ocean")
}

func TestRoute_UnknownIntentNeedsHumanReview(t *testing.T) {
	incident := Incident{Description: "the coffee machine in the office is broken"}

	decision := Route(incident, 0.85, 0.60)

	assert.Equal(t, IntentUnknown, decision.Intent)
	assert.True(t, decision.NeedsHumanReview)
	assert.False(t, decision.ShouldAutoRoute)
}

func TestRoute_HighConfidenceAutoRoutes(t *testing.T) {
	incident := Incident{Description: "load is not tracking, truck shipment over the road"}

	decision := Route(incident, 0.5, 0.3)

	assert.True(t, decision.ShouldAutoRoute)
}

func TestSupportedIntents(t *testing.T) {
	assert.True(t, SupportedIntents[IntentTrackingIssue])
	assert.False(t, SupportedIntents[IntentBilling])
}

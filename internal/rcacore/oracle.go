package rcacore

import "context"

// RescoreResult is the oracle's verdict on how one new finding affects a
// hypothesis.
type RescoreResult struct {
	Verdict       SupportHint
	NewConfidence float64
	Rationale     string
}

// Oracle is the reasoning façade. Callers never reach the underlying model
// directly — only these five capabilities are exposed. Implementations are
// non-deterministic by nature; every caller treats a response as advisory
// and validates its structure/vocabulary before trusting it (handled
// centrally by the Validate* helpers in this file, applied by the
// orchestrator and sub-investigator, not by the Oracle implementation
// itself).
type Oracle interface {
	ExtractIdentifiers(ctx context.Context, description string) (map[IdentifierKey]string, error)
	ProposeHypotheses(ctx context.Context, bag *IdentifierBag, seedEvidence []Finding) ([]Hypothesis, error)
	Rescore(ctx context.Context, h Hypothesis, finding Finding) (RescoreResult, error)
	DecideNext(ctx context.Context, h Hypothesis, evidenceSoFar []Finding, availableSources []string) (DecideAction, error)
	Synthesize(ctx context.Context, hypotheses []Hypothesis, allEvidence []Finding) (FinalVerdict, error)
}

// DefaultHypotheses is the fixed fallback set used when ProposeHypotheses
// fails or returns malformed output.
func DefaultHypotheses(registry *Registry) []Hypothesis {
	defs := []struct {
		desc string
		cat  Category
	}{
		{"The shipper-carrier network relationship required for tracking is missing.", CategoryNetworkRelationshipMissing},
		{"The carrier portal scrape is failing to retrieve updates.", CategoryCarrierPortalScrapeError},
		{"The tracking subscription for this load is inactive.", CategorySubscriptionInactive},
		{"Tracking has not been enabled for this shipment's configured method.", CategoryTrackingMethodNotEnabled},
		{"The referenced load could not be found in the platform.", CategoryLoadNotFound},
	}

	out := make([]Hypothesis, 0, len(defs))
	for _, d := range defs {
		out = append(out, Hypothesis{
			ID:          newID("hyp"),
			Description: d.desc,
			Category:    d.cat,
			Confidence:  0.3,
			Status:      StatusOpen,
		})
	}
	return out
}

// ValidateProbeSuggestions drops any suggested probe naming an unregistered
// source/capability pair.
func ValidateProbeSuggestions(registry *Registry, probes []ProbeDescriptor) []ProbeDescriptor {
	out := probes[:0:0]
	for _, p := range probes {
		if registry.IsRegistered(p.SourceName, p.CapabilityName) {
			out = append(out, p)
		}
	}
	return out
}

// ValidateDecideAction rewrites an action naming an unregistered source to
// conclude("no valid source").
func ValidateDecideAction(registry *Registry, action DecideAction) DecideAction {
	if action.Type == ActionProbe && !registry.IsRegistered(action.Source, action.Capability) {
		return DecideAction{Type: ActionConclude, Reason: "no valid source"}
	}
	return action
}

package oracle

import (
	"context"
	"regexp"
	"strings"

	"github.com/fourkites/rca-core/internal/rcacore"
)

// MockOracle is a deterministic, canned-response Oracle for tests and local
// development without network access. Each method follows simple rules
// instead of calling a model, so test expectations stay stable.
type MockOracle struct {
	// Hypotheses overrides ProposeHypotheses's output when non-nil.
	Hypotheses []rcacore.Hypothesis
	// Verdict overrides Synthesize's output when non-nil.
	Verdict *rcacore.FinalVerdict
}

// NewMockOracle returns a MockOracle with no overrides, using the built-in
// heuristics for every capability.
func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

var trackingIDPattern = regexp.MustCompile(`\b\d{6,12}\b`)
var loadNumberPattern = regexp.MustCompile(`\b[A-Z]{2,}\d{4,}\b`)

// ExtractIdentifiers implements rcacore.Oracle with regex-based extraction.
func (m *MockOracle) ExtractIdentifiers(ctx context.Context, description string) (map[rcacore.IdentifierKey]string, error) {
	out := make(map[rcacore.IdentifierKey]string)
	if ln := loadNumberPattern.FindString(description); ln != "" {
		out[rcacore.IDLoadNumber] = ln
	}
	if tid := trackingIDPattern.FindString(description); tid != "" {
		out[rcacore.IDTrackingID] = tid
	}
	return out, nil
}

// ProposeHypotheses implements rcacore.Oracle, returning Hypotheses if set,
// otherwise rcacore.DefaultHypotheses.
func (m *MockOracle) ProposeHypotheses(ctx context.Context, bag *rcacore.IdentifierBag, seedEvidence []rcacore.Finding) ([]rcacore.Hypothesis, error) {
	if m.Hypotheses != nil {
		return m.Hypotheses, nil
	}
	return rcacore.DefaultHypotheses(nil), nil
}

// Rescore implements rcacore.Oracle: an ok outcome nudges confidence up, an
// error or not_found outcome nudges it down, anything else leaves it alone.
func (m *MockOracle) Rescore(ctx context.Context, h rcacore.Hypothesis, finding rcacore.Finding) (rcacore.RescoreResult, error) {
	switch finding.Outcome {
	case rcacore.OutcomeOK:
		return rcacore.RescoreResult{Verdict: rcacore.SupportHintSupport, NewConfidence: h.Confidence + 0.25, Rationale: "probe succeeded"}, nil
	case rcacore.OutcomeNotFound, rcacore.OutcomeError:
		return rcacore.RescoreResult{Verdict: rcacore.SupportHintContradict, NewConfidence: h.Confidence - 0.2, Rationale: "probe failed or found nothing"}, nil
	default:
		return rcacore.RescoreResult{Verdict: rcacore.SupportHintUnknown, NewConfidence: h.Confidence, Rationale: "inconclusive"}, nil
	}
}

// DecideNext implements rcacore.Oracle: probe the first suggested or
// available source not yet used, then conclude.
func (m *MockOracle) DecideNext(ctx context.Context, h rcacore.Hypothesis, evidenceSoFar []rcacore.Finding, availableSources []string) (rcacore.DecideAction, error) {
	used := make(map[string]bool, len(evidenceSoFar))
	for _, f := range evidenceSoFar {
		used[f.SourceName+"/"+f.CapabilityName] = true
	}

	for _, p := range h.SuggestedProbes {
		full := p.FullName()
		if !used[full] {
			return rcacore.DecideAction{Type: rcacore.ActionProbe, Source: p.SourceName, Capability: p.CapabilityName}, nil
		}
	}
	for _, full := range availableSources {
		if !used[full] {
			parts := strings.SplitN(full, "/", 2)
			if len(parts) == 2 {
				return rcacore.DecideAction{Type: rcacore.ActionProbe, Source: parts[0], Capability: parts[1]}, nil
			}
		}
	}
	return rcacore.DecideAction{Type: rcacore.ActionConclude, Reason: "no more sources to try"}, nil
}

// Synthesize implements rcacore.Oracle: returns Verdict if set, otherwise
// the highest-confidence hypothesis.
func (m *MockOracle) Synthesize(ctx context.Context, hypotheses []rcacore.Hypothesis, allEvidence []rcacore.Finding) (rcacore.FinalVerdict, error) {
	if m.Verdict != nil {
		return *m.Verdict, nil
	}

	var best *rcacore.Hypothesis
	for i := range hypotheses {
		if best == nil || hypotheses[i].Confidence > best.Confidence {
			best = &hypotheses[i]
		}
	}
	if best == nil {
		return rcacore.FinalVerdict{RootCauseCategory: rcacore.CategoryUnknown, NeedsHuman: true}, nil
	}
	return rcacore.FinalVerdict{
		RootCauseText:     best.Description,
		RootCauseCategory: best.Category,
		Confidence:        best.Confidence,
		Explanation:       "mock oracle selected the highest-confidence hypothesis",
	}, nil
}

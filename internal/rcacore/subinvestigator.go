package rcacore

import (
	"context"
	"strings"
	"time"

	"github.com/fourkites/rca-core/internal/logging"
)

// dampeningThreshold and dampeningFactor discourage over-confidence from
// sparse data: hypotheses with fewer than 3 evidence items have their
// confidence dampened.
const (
	dampeningThreshold = 3
	dampeningFactor    = 0.8
)

// SubInvestigatorConfig bundles the knobs one sub-investigator run needs.
type SubInvestigatorConfig struct {
	MaxIterations  int
	HighConfidence float64
	LowConfidence  float64
	Deadline       time.Duration
	ExtraParams    func(descriptor ProbeDescriptor, evidenceSoFar []Finding) map[string]string
}

// SubInvestigatorResult is what the orchestrator collects once a
// sub-investigator finishes.
type SubInvestigatorResult struct {
	State      SubInvestigatorState
	Hypothesis Hypothesis
	Children   []string // child hypothesis descriptions, for promotion by the orchestrator
}

// RunSubInvestigator executes the bounded reasoning loop for ONE hypothesis.
// It is the sole writer of evidence gathered on this hypothesis's behalf and
// the sole emitter of its own lifecycle events; the orchestrator only reads
// back the SubInvestigatorResult.
func RunSubInvestigator(
	ctx context.Context,
	agentID string,
	hypothesis Hypothesis,
	descriptors []ProbeDescriptor,
	registry *Registry,
	store *EvidenceStore,
	oracle Oracle,
	stream *Stream,
	cfg SubInvestigatorConfig,
) SubInvestigatorResult {
	logger := logging.GetLogger("rcacore.subinvestigator").WithField("agent_id", agentID)

	ctx, cancel := context.WithTimeout(ctx, cfg.Deadline)
	defer cancel()

	state := SubInvestigatorState{
		AgentID:      agentID,
		HypothesisID: hypothesis.ID,
		StartedAt:    time.Now(),
	}
	result := SubInvestigatorResult{State: state, Hypothesis: hypothesis}

	ownEvidence := make([]Finding, 0, cfg.MaxIterations)

	finish := func(reason TerminalReason) SubInvestigatorResult {
		now := time.Now()
		result.State.EndedAt = &now
		result.State.TerminalReason = reason
		stream.Emit(Event{
			Type: EventSubAgentDone, AgentID: agentID, TerminalReason: string(reason),
			Iterations: result.State.Iteration, EvidenceCount: len(ownEvidence),
		})
		return result
	}

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		result.State.Iteration = iter

		if ctx.Err() != nil {
			return finish(TerminalFailed)
		}

		action, err := oracle.DecideNext(ctx, result.Hypothesis, ownEvidence, registry.CapabilityNames())
		if err != nil {
			logger.ErrorWithErr("decide_next failed, concluding", err)
			return finish(TerminalOracleConcluded)
		}
		action = ValidateDecideAction(registry, action)

		switch action.Type {
		case ActionConclude:
			stream.Emit(Event{Type: EventSubAgentAction, AgentID: agentID, Iteration: iter, ActionType: string(ActionConclude), Reason: action.Reason})
			return finish(TerminalOracleConcluded)

		case ActionSpawnChild:
			stream.Emit(Event{Type: EventSubAgentAction, AgentID: agentID, Iteration: iter, ActionType: string(ActionSpawnChild), Reason: action.ChildDesc})
			stream.Emit(Event{Type: EventChildSpawn, ParentAgentID: agentID, ChildDescription: action.ChildDesc})
			result.Children = append(result.Children, action.ChildDesc)
			continue

		case ActionProbe:
			descriptor, ok := descriptorByName(descriptors, action.Source+"/"+action.Capability)
			if !ok {
				stream.Emit(Event{Type: EventSubAgentAction, AgentID: agentID, Iteration: iter, ActionType: string(ActionConclude), Reason: "no valid source"})
				return finish(TerminalOracleConcluded)
			}

			// ExtraParams is an orchestrator-provided closure that already
			// resolved every parameter it can from the (orchestrator-owned,
			// read-only-from-here) identifier bag plus any computed extras
			// (window defaults, log-search date range, doc-search keywords).
			// Sub-investigators never hold or mutate the bag directly.
			var resolved map[string]string
			if cfg.ExtraParams != nil {
				resolved = cfg.ExtraParams(descriptor, ownEvidence)
			}
			params, missing := fillParamsOrSkip(descriptor, resolved)

			stream.Emit(Event{
				Type: EventSubAgentAction, AgentID: agentID, Iteration: iter,
				ActionType: string(ActionProbe), Source: action.Source, Capability: action.Capability,
			})

			var finding Finding
			if missing != "" {
				finding = Finding{
					ID: FindingIdentity(action.Source, action.Capability, params), SourceName: action.Source,
					CapabilityName: action.Capability, ProducedAt: time.Now(), Outcome: OutcomeSkipped,
					Summary: "missing required parameter " + missing, SupportsHint: SupportHintUnknown,
				}
			} else {
				finding = registry.Invoke(ctx, action.Source, action.Capability, params)
				store.Insert(finding)
			}
			ownEvidence = append(ownEvidence, finding)

			stream.Emit(Event{
				Type: EventEvidence, AgentID: agentID, FindingID: finding.ID, Source: finding.SourceName,
				Capability: finding.CapabilityName, Outcome: string(finding.Outcome), Summary: finding.Summary,
			})

			rescored, err := oracle.Rescore(ctx, result.Hypothesis, finding)
			if err != nil {
				logger.ErrorWithErr("rescore failed, keeping prior confidence", err)
				continue
			}

			before := result.Hypothesis.Confidence
			newConf := clamp01(rescored.NewConfidence)
			if len(ownEvidence) < dampeningThreshold {
				newConf *= dampeningFactor
			}
			result.Hypothesis.Confidence = newConf
			if rescored.Verdict == SupportHintSupport {
				result.Hypothesis.EvidenceForIDs = append(result.Hypothesis.EvidenceForIDs, finding.ID)
			} else if rescored.Verdict == SupportHintContradict {
				result.Hypothesis.EvidenceAgainstIDs = append(result.Hypothesis.EvidenceAgainstIDs, finding.ID)
			}
			result.Hypothesis.RecomputeStatus(cfg.HighConfidence, cfg.LowConfidence)

			if abs(newConf-before) > 0.01 {
				stream.Emit(Event{
					Type: EventHypothesisUpdate, HypothesisID: result.Hypothesis.ID,
					Confidence: newConf, Status: string(result.Hypothesis.Status), Delta: newConf - before,
				})
			}

			switch result.Hypothesis.Status {
			case StatusConfirmed:
				return finish(TerminalConfirmed)
			case StatusEliminated:
				return finish(TerminalEliminated)
			}
		}
	}

	return finish(TerminalMaxIterations)
}

func fillParamsOrSkip(descriptor ProbeDescriptor, extra map[string]string) (map[string]string, string) {
	params := make(map[string]string, len(extra))
	for k, v := range extra {
		params[k] = v
	}
	for name := range descriptor.RequiredParams {
		if _, ok := params[name]; !ok {
			return params, name
		}
	}
	return params, ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// deriveDocSearchKeywords builds kv-doc-search keywords from the latest
// error finding's summary: split on non-alphanumeric runs, drop stopwords
// and short tokens, keep the top 5 by length.
func deriveDocSearchKeywords(evidence []Finding) []string {
	var latestError *Finding
	for i := range evidence {
		if evidence[i].Outcome == OutcomeError {
			latestError = &evidence[i]
		}
	}
	if latestError == nil {
		return nil
	}

	stopwords := map[string]bool{"the": true, "and": true, "for": true, "with": true, "from": true, "this": true, "that": true, "was": true, "were": true}
	var tokens []string
	for _, tok := range strings.FieldsFunc(latestError.Summary, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		lower := strings.ToLower(tok)
		if len(lower) < 3 || stopwords[lower] {
			continue
		}
		tokens = append(tokens, lower)
	}

	sortByLenDesc(tokens)
	if len(tokens) > 5 {
		tokens = tokens[:5]
	}
	return tokens
}

func sortByLenDesc(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && len(s[j-1]) < len(s[j]); j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

package oracle

import (
	"fmt"
	"strings"

	"github.com/fourkites/rca-core/internal/rcacore"
)

const extractIdentifiersSystemPrompt = `You extract shipment identifiers from free-form incident text. Only return fields you are confident about; omit anything not explicitly present. Never invent an identifier.`

const proposeHypothesesSystemPrompt = `You are investigating why a shipment is not tracking correctly on a logistics platform. Given known identifiers and seed evidence, propose 3 to 5 distinct candidate root causes. Each must use one of the platform's closed root-cause categories and name probes only from its registered capability list.`

const rescoreSystemPrompt = `You judge how a single new piece of evidence affects confidence in a root-cause hypothesis. Respond with whether the finding supports or contradicts the hypothesis and a revised confidence in [0,1].`

const decideNextSystemPrompt = `You are running a bounded investigation loop for one hypothesis. Given the evidence gathered so far, decide whether to run another probe, spawn a child hypothesis, or conclude the investigation for this branch.`

const synthesizeSystemPrompt = `You synthesize a final root-cause verdict from a set of tested hypotheses and all evidence gathered. Favor the hypothesis with the strongest evidentiary support; state remaining uncertainties honestly.`

func summarizeFindings(findings []rcacore.Finding) string {
	if len(findings) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&sb, "- %s/%s outcome=%s: %s\n", f.SourceName, f.CapabilityName, f.Outcome, f.Summary)
	}
	return sb.String()
}

func summarizeHypotheses(hypotheses []rcacore.Hypothesis) string {
	if len(hypotheses) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, h := range hypotheses {
		fmt.Fprintf(&sb, "- [%s] %s category=%s confidence=%.2f status=%s\n", h.ID, h.Description, h.Category, h.Confidence, h.Status)
	}
	return sb.String()
}

// parseProbeRef turns a "source/capability" string into a descriptor stub
// carrying only the two names; ValidateProbeSuggestions drops it if the name
// isn't registered.
func parseProbeRef(ref string) rcacore.ProbeDescriptor {
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 {
		return rcacore.ProbeDescriptor{SourceName: ref}
	}
	return rcacore.ProbeDescriptor{SourceName: parts[0], CapabilityName: parts[1]}
}

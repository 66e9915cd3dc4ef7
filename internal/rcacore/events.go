package rcacore

import "time"

// EventType discriminates the progress-event union. Unknown variants are
// never produced; consumers that see one not in this list should reject it
// rather than pass it through.
type EventType string

const (
	EventStarted          EventType = "started"
	EventRouted           EventType = "routed"
	EventIdentifiers      EventType = "identifiers"
	EventHypothesis       EventType = "hypothesis"
	EventSubAgentSpawn    EventType = "sub_agent_spawn"
	EventSubAgentAction   EventType = "sub_agent_action"
	EventEvidence         EventType = "evidence"
	EventHypothesisUpdate EventType = "hypothesis_update"
	EventChildSpawn       EventType = "child_spawn"
	EventSubAgentDone     EventType = "sub_agent_done"
	EventVerdict          EventType = "verdict"
	EventHeartbeat        EventType = "heartbeat"
	EventError            EventType = "error"
	EventComplete         EventType = "complete"
)

// terminalEventTypes are the only types allowed to end a stream.
var terminalEventTypes = map[EventType]bool{
	EventComplete: true,
	EventError:    true,
}

// Event is the wire shape of one progress-stream unit. Fields are grouped by
// which EventType populates them; unused fields are omitted from JSON.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"ts"`

	InvestigationID string `json:"investigation_id,omitempty"`
	Mode            string `json:"mode,omitempty"`

	Intent          string   `json:"intent,omitempty"`
	Domain          string   `json:"domain,omitempty"`
	SkillID         string   `json:"skill_id,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
	MatchedPatterns []string `json:"matched_patterns,omitempty"`

	Bag map[string]string `json:"bag,omitempty"`

	HypothesisID string `json:"id,omitempty"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`

	AgentID      string `json:"agent_id,omitempty"`
	Iteration    int    `json:"iteration,omitempty"`
	ActionType   string `json:"action_type,omitempty"`
	Source       string `json:"source,omitempty"`
	Capability   string `json:"capability,omitempty"`
	Reason       string `json:"reason,omitempty"`

	FindingID string `json:"finding_id,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Summary   string `json:"summary,omitempty"`

	Status string  `json:"status,omitempty"`
	Delta  float64 `json:"delta,omitempty"`

	ParentAgentID    string `json:"parent_agent_id,omitempty"`
	ChildDescription string `json:"child_description,omitempty"`

	TerminalReason string `json:"terminal_reason,omitempty"`
	Iterations     int    `json:"iterations,omitempty"`
	EvidenceCount  int    `json:"evidence_count,omitempty"`

	RootCause     string   `json:"root_cause,omitempty"`
	Actions       []string `json:"actions,omitempty"`
	NeedsHuman    bool     `json:"needs_human,omitempty"`
	HumanQuestion string   `json:"human_question,omitempty"`

	ProgressPercent  int    `json:"progress_percent,omitempty"`
	Phase            string `json:"phase,omitempty"`
	SourcesCompleted int    `json:"sources_completed,omitempty"`
	SourcesTotal     int    `json:"sources_total,omitempty"`

	Message string `json:"message,omitempty"`
	AtPhase string `json:"at_phase,omitempty"`

	DurationMS int64 `json:"duration_ms,omitempty"`
}

// phaseBands gives the deterministic [low, high] progress_percent range for
// each heartbeat phase.
var phaseBands = map[string][2]int{
	"routing":      {0, 10},
	"seeding":      {10, 30},
	"forming":      {30, 40},
	"probing":      {40, 90},
	"synthesizing": {90, 99},
	"done":         {100, 100},
}

// ProgressPercent computes the deterministic progress percentage for a phase
// given completed/total source counts within that phase's band.
func ProgressPercent(phase string, sourcesCompleted, sourcesTotal int) int {
	band, ok := phaseBands[phase]
	if !ok {
		return 0
	}
	low, high := band[0], band[1]
	if sourcesTotal <= 0 || low == high {
		return low
	}
	frac := float64(sourcesCompleted) / float64(sourcesTotal)
	if frac > 1 {
		frac = 1
	}
	return low + int(frac*float64(high-low))
}

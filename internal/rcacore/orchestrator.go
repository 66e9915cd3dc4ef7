package rcacore

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	dps "github.com/markusmobius/go-dateparser"
	"golang.org/x/sync/semaphore"

	"github.com/fourkites/rca-core/internal/logging"
)

// OrchestratorConfig is the subset of rcaconfig.Config the orchestrator
// needs, kept as a plain struct here so this package has no dependency on
// the config-loading package (only the wiring layer in cmd/ does).
type OrchestratorConfig struct {
	MaxParallel               int
	MaxChildDepth             int
	MaxIterationsPerAgent     int
	HighConfidence            float64
	MedConfidence             float64
	LowConfidence             float64
	HighRoute                 float64
	MedRoute                  float64
	HeartbeatInterval         time.Duration
	InvestigationDeadline     time.Duration
	SubInvestigatorDeadline   time.Duration
}

// Orchestrator is the top-level coordinator: it routes an incident, seeds
// evidence, forms hypotheses, runs sub-investigators to test them, and
// synthesizes a final verdict while streaming progress events throughout.
type Orchestrator struct {
	Registry    *Registry
	Descriptors []ProbeDescriptor
	Oracle      Oracle
	Config      OrchestratorConfig
	logger      *logging.Logger

	mu               sync.Mutex
	phase            string
	sourcesCompleted int
	sourcesTotal     int
}

// NewOrchestrator wires a registry, oracle, and config into an Orchestrator.
func NewOrchestrator(registry *Registry, descriptors []ProbeDescriptor, oracle Oracle, cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		Registry: registry, Descriptors: descriptors, Oracle: oracle, Config: cfg,
		logger: logging.GetLogger("rcacore.orchestrator"),
	}
}

// Investigate starts one investigation and returns its progress Stream
// immediately; the investigation itself runs on a background goroutine. The
// stream's terminal event (verdict+complete, or a bare error) signals
// completion.
func (o *Orchestrator) Investigate(ctx context.Context, incident Incident) *Stream {
	stream := NewStream(256)
	investigationID := newID("inv")

	ctx, cancel := context.WithTimeout(ctx, o.Config.InvestigationDeadline)

	go func() {
		defer cancel()
		o.run(ctx, investigationID, incident, stream)
	}()

	return stream
}

func (o *Orchestrator) setPhase(phase string, completed, total int) {
	o.mu.Lock()
	o.phase, o.sourcesCompleted, o.sourcesTotal = phase, completed, total
	o.mu.Unlock()
}

func (o *Orchestrator) snapshotPhase() (string, int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase, o.sourcesCompleted, o.sourcesTotal
}

func (o *Orchestrator) run(ctx context.Context, investigationID string, incident Incident, stream *Stream) {
	start := time.Now()
	logger := o.logger.WithField("investigation_id", investigationID)

	heartbeatDone := make(chan struct{})
	go o.heartbeatLoop(ctx, stream, heartbeatDone)
	defer close(heartbeatDone)

	stream.Emit(Event{Type: EventStarted, InvestigationID: investigationID, Mode: "hypothesis", Timestamp: start})

	// 1. Route.
	o.setPhase("routing", 0, 1)
	routing := Route(incident, o.Config.HighRoute, o.Config.MedRoute)
	stream.Emit(Event{
		Type: EventRouted, Intent: string(routing.Intent), Domain: string(routing.Domain),
		SkillID: routing.SkillID, Confidence: routing.Confidence, MatchedPatterns: routing.MatchedPatterns,
	})

	if routing.Intent == IntentUnknown {
		stream.Emit(Event{Type: EventError, Message: "could not classify incident intent", AtPhase: "routing"})
		return
	}
	if !SupportedIntents[routing.Intent] {
		o.emitVerdictAndComplete(stream, start, FinalVerdict{
			RootCauseCategory: CategoryUnknown,
			Explanation:       "routed intent is not implemented by this investigation core",
			NeedsHuman:        true,
			HumanQuestion:     "this incident requires a different workflow (intent=" + string(routing.Intent) + ")",
		})
		return
	}

	// 2. Extract identifiers.
	o.setPhase("seeding", 0, 1)
	bag := NewIdentifierBag()
	if extracted, err := o.Oracle.ExtractIdentifiers(ctx, incident.Description); err == nil {
		for k, v := range extracted {
			bag.Set(k, v)
		}
	} else {
		logger.ErrorWithErr("extract_identifiers failed, continuing with explicit fields only", err)
	}
	// Explicit structured fields win over oracle extraction: set them first by
	// overwriting the bag with a fresh bag seeded from explicit fields, then
	// layering in whatever the oracle found that wasn't already present.
	explicitBag := NewIdentifierBag()
	explicitBag.Set(IDTrackingID, incident.TrackingID)
	explicitBag.Set(IDLoadNumber, incident.LoadNumber)
	explicitBag.Set(IDTicketID, incident.TicketID)
	explicitBag.Set(IDShipperName, incident.ShipperHint)
	explicitBag.Set(IDCarrierName, incident.CarrierHint)
	finalBag := NewIdentifierBag()
	for k, v := range explicitBag.Snapshot() {
		finalBag.Set(k, v)
	}
	for k, v := range bag.Snapshot() {
		finalBag.Set(k, v)
	}
	bag = finalBag

	stream.Emit(Event{Type: EventIdentifiers, Bag: bagToStrings(bag)})

	if !bag.Has(IDTrackingID, IDLoadNumber) {
		o.emitVerdictAndComplete(stream, start, FinalVerdict{
			RootCauseCategory: CategoryUnknown,
			Explanation:       "insufficient identifiers to begin investigation",
			NeedsHuman:        true,
			HumanQuestion:     "please provide a tracking id or load number",
		})
		return
	}

	// 3. Seed evidence.
	store := NewEvidenceStore()
	seedEvidence := o.seed(ctx, bag, store)

	// 4. Form hypotheses.
	o.setPhase("forming", 0, 1)
	hypotheses, err := o.Oracle.ProposeHypotheses(ctx, bag, seedEvidence)
	if err != nil || len(hypotheses) == 0 {
		logger.ErrorWithErr("propose_hypotheses failed, using default hypothesis set", err)
		hypotheses = DefaultHypotheses(o.Registry)
	}
	for i := range hypotheses {
		if hypotheses[i].ID == "" {
			hypotheses[i].ID = newID("hyp")
		}
		hypotheses[i].Category = NormalizeCategory(string(hypotheses[i].Category))
		hypotheses[i].SuggestedProbes = ValidateProbeSuggestions(o.Registry, hypotheses[i].SuggestedProbes)
		hypotheses[i].RecomputeStatus(o.Config.HighConfidence, o.Config.LowConfidence)
		stream.Emit(Event{
			Type: EventHypothesis, HypothesisID: hypotheses[i].ID, Description: hypotheses[i].Description,
			Category: string(hypotheses[i].Category), Confidence: hypotheses[i].Confidence,
		})
	}

	// 5+6. Spawn sub-investigators, processing children up to MaxChildDepth.
	o.setPhase("probing", 0, len(hypotheses))
	sequencer := newAgentIDSequencer()
	allResults := o.runDepth(ctx, bag, store, stream, sequencer, hypotheses, 0, incident.Description)

	finalHypotheses := make([]Hypothesis, 0, len(allResults))
	for _, r := range allResults {
		finalHypotheses = append(finalHypotheses, r.Hypothesis)
	}

	// 7. Synthesize.
	o.setPhase("synthesizing", 0, 1)
	verdict, err := o.Oracle.Synthesize(ctx, finalHypotheses, store.Snapshot())
	if err != nil {
		logger.ErrorWithErr("synthesize failed, falling back to highest-confidence open hypothesis", err)
		verdict = fallbackSynthesis(finalHypotheses, store)
	}
	verdict.RootCauseCategory = NormalizeCategory(string(verdict.RootCauseCategory))
	if verdict.Confidence < o.Config.MedConfidence {
		verdict.NeedsHuman = true
		if verdict.HumanQuestion == "" {
			verdict.HumanQuestion = topUncertaintiesQuestion(finalHypotheses)
		}
	}
	if ctx.Err() != nil {
		verdict.NeedsHuman = true
	}

	o.emitVerdictAndComplete(stream, start, verdict)
}

func (o *Orchestrator) emitVerdictAndComplete(stream *Stream, start time.Time, verdict FinalVerdict) {
	verdict.DurationMS = time.Since(start).Milliseconds()
	stream.Emit(Event{
		Type: EventVerdict, RootCause: verdict.RootCauseText, Category: string(verdict.RootCauseCategory),
		Confidence: verdict.Confidence, Actions: verdict.RecommendedActions,
		NeedsHuman: verdict.NeedsHuman, HumanQuestion: verdict.HumanQuestion,
	})
	stream.Emit(Event{Type: EventComplete, DurationMS: verdict.DurationMS})
}

func (o *Orchestrator) seed(ctx context.Context, bag *IdentifierBag, store *EvidenceStore) []Finding {
	var finding Finding
	if tid, ok := bag.Get(IDTrackingID); ok {
		finding = o.Registry.Invoke(ctx, "platform", "load-lookup-by-id", map[string]string{"tracking_id": tid})
	} else if ln, ok := bag.Get(IDLoadNumber); ok {
		params := map[string]string{"load_number": ln}
		if sid, ok := bag.Get(IDShipperID); ok {
			params["shipper_id"] = sid
		}
		finding = o.Registry.Invoke(ctx, "platform", "load-lookup-by-number", params)
	} else {
		return nil
	}
	store.Insert(finding)

	if finding.Outcome == OutcomeOK {
		for _, key := range []IdentifierKey{IDTrackingID, IDLoadNumber, IDShipperID, IDCarrierID, IDContainerNumber, IDBookingNumber, IDSubscriptionID} {
			if v, ok := finding.Payload[string(key)]; ok {
				if s, ok := v.(string); ok {
					bag.Set(key, s)
				}
			}
		}
	}
	return []Finding{finding}
}

// runDepth spawns sub-investigators for hypotheses at one depth level under
// bounded parallelism, then recurses into any child hypotheses the depth
// produced, up to MaxChildDepth.
func (o *Orchestrator) runDepth(
	ctx context.Context, bag *IdentifierBag, store *EvidenceStore, stream *Stream,
	sequencer *agentIDSequencer, hypotheses []Hypothesis, depth int, description string,
) []SubInvestigatorResult {
	if len(hypotheses) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(int64(o.Config.MaxParallel))
	results := make([]SubInvestigatorResult, len(hypotheses))
	var wg sync.WaitGroup

	logSearchStart := logSearchStartFromDescription(description)
	extraParams := func(descriptor ProbeDescriptor, evidenceSoFar []Finding) map[string]string {
		extra := map[string]string{}
		switch descriptor.FullName() {
		case "logs/structured-search":
			extra["service"] = "tracking"
			extra["start"] = logSearchStart.Format("2006-01-02")
			extra["end"] = time.Now().Format("2006-01-02")
			extra["search"] = "error"
		case "carrier/portal-scrape-history", "carrier/webhook-delivery-history":
			extra["window_days"] = "7"
		case "kv/doc-search":
			if keywords := deriveDocSearchKeywords(evidenceSoFar); len(keywords) > 0 {
				extra["keywords"] = strings.Join(keywords, ",")
			}
		}
		params, _ := FillParamsFromBag(descriptor, bag, extra)
		return params
	}

	for i, h := range hypotheses {
		agentID := sequencer.next(h.Category)
		stream.Emit(Event{Type: EventSubAgentSpawn, AgentID: agentID, HypothesisID: h.ID})

		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = SubInvestigatorResult{Hypothesis: h}
			continue
		}
		wg.Add(1)
		go func(idx int, agentID string, hyp Hypothesis) {
			defer wg.Done()
			defer sem.Release(1)
			results[idx] = RunSubInvestigator(ctx, agentID, hyp, o.Descriptors, o.Registry, store, o.Oracle, stream, SubInvestigatorConfig{
				MaxIterations:  o.Config.MaxIterationsPerAgent,
				HighConfidence: o.Config.HighConfidence,
				LowConfidence:  o.Config.LowConfidence,
				Deadline:       o.Config.SubInvestigatorDeadline,
				ExtraParams:    extraParams,
			})
		}(i, agentID, h)
	}
	wg.Wait()

	if depth >= o.Config.MaxChildDepth {
		return results
	}

	var childHypotheses []Hypothesis
	for _, r := range results {
		for _, desc := range r.Children {
			childHypotheses = append(childHypotheses, Hypothesis{
				ID:          newID("hyp"),
				Description: desc,
				Category:    r.Hypothesis.Category,
				Confidence:  clamp01(r.Hypothesis.Confidence * 0.8),
				Status:      StatusOpen,
				ParentID:    r.Hypothesis.ID,
			})
		}
	}
	if len(childHypotheses) == 0 {
		return results
	}
	for i := range childHypotheses {
		stream.Emit(Event{
			Type: EventHypothesis, HypothesisID: childHypotheses[i].ID, Description: childHypotheses[i].Description,
			Category: string(childHypotheses[i].Category), Confidence: childHypotheses[i].Confidence,
		})
	}

	childResults := o.runDepth(ctx, bag, store, stream, sequencer, childHypotheses, depth+1, description)
	return append(results, childResults...)
}

// logSearchStartFromDescription looks for a free-text time reference in the
// incident description ("since last Tuesday", "starting yesterday") and uses
// it as the log-search window start. Falls back to a 30-day lookback when the
// description carries no parseable date, which covers the common case of a
// ticket that names an identifier but no timeframe.
func logSearchStartFromDescription(description string) time.Time {
	fallback := time.Now().Add(-30 * 24 * time.Hour)
	candidate := extractDateClause(description)
	if candidate == "" {
		return fallback
	}
	parser := dps.Parser{}
	cfg := &dps.Configuration{PreferredDateSource: dps.Past}
	parsed, err := parser.Parse(cfg, candidate)
	if err != nil || parsed.IsZero() {
		return fallback
	}
	return parsed.Time
}

var sinceClausePattern = regexp.MustCompile(`(?i)\b(?:since|starting|from)\s+([a-z0-9 ,/-]{3,30})`)

// extractDateClause pulls the phrase following "since"/"starting"/"from" out
// of a free-text incident description, e.g. "since last Tuesday" -> "last
// Tuesday". Returns "" if no such clause is present.
func extractDateClause(description string) string {
	m := sinceClausePattern.FindStringSubmatch(description)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func (o *Orchestrator) heartbeatLoop(ctx context.Context, stream *Stream, done <-chan struct{}) {
	ticker := time.NewTicker(o.Config.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			phase, completed, total := o.snapshotPhase()
			stream.Emit(Event{
				Type: EventHeartbeat, Phase: phase, SourcesCompleted: completed, SourcesTotal: total,
				ProgressPercent: ProgressPercent(phase, completed, total),
			})
		}
	}
}

func bagToStrings(bag *IdentifierBag) map[string]string {
	snap := bag.Snapshot()
	out := make(map[string]string, len(snap))
	for k, v := range snap {
		out[string(k)] = v
	}
	return out
}

// fallbackSynthesis covers a failed or malformed synthesize call by picking
// the highest-confidence open hypothesis (or, when none is open, the
// highest-confidence hypothesis of any status) and reporting it directly.
func fallbackSynthesis(hypotheses []Hypothesis, store *EvidenceStore) FinalVerdict {
	if len(hypotheses) == 0 {
		return FinalVerdict{RootCauseCategory: CategoryUnknown, NeedsHuman: true, Explanation: "no hypotheses to synthesize from (fallback)"}
	}
	sorted := append([]Hypothesis(nil), hypotheses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })
	best := sorted[0]
	for _, h := range sorted {
		if h.Status == StatusOpen {
			best = h
			break
		}
	}

	evidenceIDs := append(append([]string{}, best.EvidenceForIDs...), best.EvidenceAgainstIDs...)
	return FinalVerdict{
		RootCauseText:      best.Description,
		RootCauseCategory:  best.Category,
		Confidence:         best.Confidence,
		Explanation:        "synthesis fell back to the highest-confidence open hypothesis after the oracle produced malformed output",
		EvidenceRefIDs:     evidenceIDs,
		HypothesesSummary:  summarize(hypotheses),
		NeedsHuman:         best.Confidence < 0.6,
	}
}

func summarize(hypotheses []Hypothesis) []HypothesisSummary {
	out := make([]HypothesisSummary, 0, len(hypotheses))
	for _, h := range hypotheses {
		out = append(out, HypothesisSummary{ID: h.ID, Description: h.Description, Category: h.Category, Confidence: h.Confidence, Status: h.Status})
	}
	return out
}

func topUncertaintiesQuestion(hypotheses []Hypothesis) string {
	sorted := append([]Hypothesis(nil), hypotheses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	q := "which of these is the actual root cause: "
	for i, h := range sorted {
		if i > 0 {
			q += "; "
		}
		q += string(h.Category) + " (" + fmtConfidence(h.Confidence) + ")"
	}
	return q
}

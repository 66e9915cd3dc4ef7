// Package rcacore implements the Investigation Core: the hypothesis-driven
// orchestrator that routes a shipment-tracking incident, spawns concurrent
// sub-investigators to test candidate root causes, and synthesizes a final
// verdict while streaming progress events.
package rcacore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Outcome is the closed set of results a probe invocation can produce.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeError     Outcome = "error"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeSkipped   Outcome = "skipped"
)

// SupportHint indicates how a finding bears on the hypothesis that
// triggered it, as judged by the probe itself before the oracle rescores it.
type SupportHint string

const (
	SupportHintSupport    SupportHint = "support"
	SupportHintContradict SupportHint = "contradict"
	SupportHintUnknown    SupportHint = "unknown"
)

// HypothesisStatus is a pure function of confidence and the configured
// thresholds.
type HypothesisStatus string

const (
	StatusOpen      HypothesisStatus = "open"
	StatusConfirmed HypothesisStatus = "confirmed"
	StatusEliminated HypothesisStatus = "eliminated"
)

// Category is the closed vocabulary of root-cause classes.
type Category string

const (
	CategoryNetworkRelationshipMissing  Category = "network_relationship_missing"
	CategoryNetworkRelationshipInactive Category = "network_relationship_inactive"
	CategoryCarrierConfigMissing        Category = "carrier_config_missing"
	CategoryCarrierPortalScrapeError    Category = "carrier_portal_scrape_error"
	CategoryCarrierPortalDown           Category = "carrier_portal_down"
	CategoryCarrierDataIncorrect        Category = "carrier_data_incorrect"
	CategoryCarrierFileProcessingError  Category = "carrier_file_processing_error"
	CategoryCarrierFileMalformed        Category = "carrier_file_malformed"
	CategoryTrackingMethodNotEnabled    Category = "tracking_method_not_enabled"
	CategorySubscriptionInactive        Category = "subscription_inactive"
	CategoryIdentifierMismatch          Category = "identifier_mismatch"
	CategoryAssetAssignmentFailure      Category = "asset_assignment_failure"
	CategoryLocationProcessingError     Category = "location_processing_error"
	CategoryLocationValidationRejected  Category = "location_validation_rejected"
	CategoryFileIngestionError          Category = "file_ingestion_error"
	CategoryDataMappingError            Category = "data_mapping_error"
	CategoryGeocodingFailure            Category = "geocoding_failure"
	CategoryValidationError             Category = "validation_error"
	CategoryDuplicateLoad               Category = "duplicate_load"
	CategoryLoadNotFound                Category = "load_not_found"
	CategoryLoadDeleted                 Category = "load_deleted"
	CategorySystemProcessingError       Category = "system_processing_error"
	CategoryUnknown                     Category = "unknown"
)

// ValidCategories is the closed set; anything else is rejected and mapped to
// CategoryUnknown.
var ValidCategories = map[Category]bool{
	CategoryNetworkRelationshipMissing:  true,
	CategoryNetworkRelationshipInactive: true,
	CategoryCarrierConfigMissing:        true,
	CategoryCarrierPortalScrapeError:    true,
	CategoryCarrierPortalDown:           true,
	CategoryCarrierDataIncorrect:        true,
	CategoryCarrierFileProcessingError:  true,
	CategoryCarrierFileMalformed:        true,
	CategoryTrackingMethodNotEnabled:    true,
	CategorySubscriptionInactive:        true,
	CategoryIdentifierMismatch:          true,
	CategoryAssetAssignmentFailure:      true,
	CategoryLocationProcessingError:     true,
	CategoryLocationValidationRejected:  true,
	CategoryFileIngestionError:          true,
	CategoryDataMappingError:            true,
	CategoryGeocodingFailure:            true,
	CategoryValidationError:             true,
	CategoryDuplicateLoad:               true,
	CategoryLoadNotFound:                true,
	CategoryLoadDeleted:                 true,
	CategorySystemProcessingError:       true,
	CategoryUnknown:                     true,
}

// NormalizeCategory maps an arbitrary string onto the closed category set,
// falling back to CategoryUnknown for anything unrecognized.
func NormalizeCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if ValidCategories[c] {
		return c
	}
	return CategoryUnknown
}

// Intent is the closed set of incident intents the router can classify.
type Intent string

const (
	IntentTrackingIssue Intent = "tracking_issue"
	IntentLoadCreation  Intent = "load_creation"
	IntentDataQuality   Intent = "data_quality"
	IntentBilling       Intent = "billing"
	IntentUnknown       Intent = "unknown"
)

// Domain is the closed set of transportation modes the router recognizes.
type Domain string

const (
	DomainOverTheRoad Domain = "over-the-road"
	DomainOcean       Domain = "ocean"
	DomainDrayage     Domain = "drayage"
	DomainAir         Domain = "air"
	DomainUnknown     Domain = "unknown"
)

// IdentifierKey names a well-known slot in the identifier bag.
type IdentifierKey string

const (
	IDTrackingID       IdentifierKey = "tracking_id"
	IDLoadNumber       IdentifierKey = "load_number"
	IDTicketID         IdentifierKey = "ticket_id"
	IDShipperID        IdentifierKey = "shipper_id"
	IDCarrierID        IdentifierKey = "carrier_id"
	IDContainerNumber  IdentifierKey = "container_number"
	IDBookingNumber    IdentifierKey = "booking_number"
	IDSubscriptionID   IdentifierKey = "subscription_id"
	IDShipperName      IdentifierKey = "shipper_name"
	IDCarrierName      IdentifierKey = "carrier_name"
)

// IdentifierBag maps canonical identifier keys to their string value.
// Mutations only ever append a previously-absent key: first write wins.
type IdentifierBag struct {
	values map[IdentifierKey]string
}

// NewIdentifierBag returns an empty bag.
func NewIdentifierBag() *IdentifierBag {
	return &IdentifierBag{values: make(map[IdentifierKey]string)}
}

// Set stores value under key only if key is not already present.
// Returns true if the value was newly set.
func (b *IdentifierBag) Set(key IdentifierKey, value string) bool {
	if value == "" {
		return false
	}
	if _, exists := b.values[key]; exists {
		return false
	}
	b.values[key] = value
	return true
}

// Get returns the value for key, and whether it is present.
func (b *IdentifierBag) Get(key IdentifierKey) (string, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Has reports whether any of the given keys is present.
func (b *IdentifierBag) Has(keys ...IdentifierKey) bool {
	for _, k := range keys {
		if _, ok := b.values[k]; ok {
			return true
		}
	}
	return false
}

// Snapshot returns a defensive copy of the bag's contents.
func (b *IdentifierBag) Snapshot() map[IdentifierKey]string {
	out := make(map[IdentifierKey]string, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// RoutingDecision is the output of matching an incident against the intent
// and domain pattern tables. Derived purely from incident input.
type RoutingDecision struct {
	Intent           Intent
	Domain           Domain
	SkillID          string
	Confidence       float64
	MatchedPatterns  []string
	ShouldAutoRoute  bool
	NeedsHumanReview bool
}

// Incident is the investigation request.
type Incident struct {
	Description   string
	TicketID      string
	LoadNumber    string
	TrackingID    string
	ShipperHint   string
	CarrierHint   string
	ModeHint      string
}

// HasUsableInput reports whether the incident carries enough to start an
// investigation: at least one of description, load number, or tracking id.
func (i Incident) HasUsableInput() bool {
	return strings.TrimSpace(i.Description) != "" ||
		strings.TrimSpace(i.LoadNumber) != "" ||
		strings.TrimSpace(i.TrackingID) != ""
}

// ProbeDescriptor names a registered capability and its parameter contract.
type ProbeDescriptor struct {
	SourceName     string
	CapabilityName string
	// RequiredParams maps parameter name to its declared type ("str"|"int"|"date"|"[str]").
	RequiredParams map[string]string
	// OptionalParams maps parameter name to its declared type; a value is
	// passed only when the identifier bag or the caller's extras supply one.
	OptionalParams map[string]string
}

// FullName returns the "source/capability" identity used in logs and events.
func (d ProbeDescriptor) FullName() string {
	return d.SourceName + "/" + d.CapabilityName
}

// Finding is an immutable evidence record produced by one probe invocation.
type Finding struct {
	ID             string
	SourceName     string
	CapabilityName string
	ProducedAt     time.Time
	LatencyMS      int64
	Outcome        Outcome
	Payload        map[string]interface{}
	Summary        string
	SupportsHint   SupportHint
	// Transient records whether an error outcome looked retryable, carried
	// through from the registry's classification without adding a new
	// Outcome variant.
	Transient bool
}

// FindingIdentity computes the dedup identity for a probe invocation: a hash
// of source, capability, and canonicalized parameters.
func FindingIdentity(sourceName, capabilityName string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(sourceName)
	sb.WriteByte('|')
	sb.WriteString(capabilityName)
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:16])
}

// Hypothesis is a mutable candidate root cause whose confidence evolves as
// evidence arrives.
type Hypothesis struct {
	ID                string
	Description       string
	Category          Category
	Confidence        float64
	Status            HypothesisStatus
	SuggestedProbes   []ProbeDescriptor
	ParentID          string
	EvidenceForIDs    []string
	EvidenceAgainstIDs []string
}

// RecomputeStatus sets Status from Confidence and the given thresholds. It is
// the single place that performs this mapping so status can never drift out
// of sync with confidence.
func (h *Hypothesis) RecomputeStatus(high, low float64) {
	switch {
	case h.Confidence >= high:
		h.Status = StatusConfirmed
	case h.Confidence <= low:
		h.Status = StatusEliminated
	default:
		h.Status = StatusOpen
	}
}

// TerminalReason is why a sub-investigator stopped.
type TerminalReason string

const (
	TerminalConfirmed      TerminalReason = "confirmed"
	TerminalEliminated     TerminalReason = "eliminated"
	TerminalMaxIterations  TerminalReason = "max_iterations"
	TerminalOracleConcluded TerminalReason = "oracle_concluded"
	TerminalFailed         TerminalReason = "failed"
)

// SubInvestigatorState tracks one hypothesis-testing loop's lifecycle.
type SubInvestigatorState struct {
	AgentID        string
	HypothesisID   string
	Iteration      int
	StartedAt      time.Time
	EndedAt        *time.Time
	TerminalReason TerminalReason
}

// FinalVerdict is the synthesized answer for one investigation.
type FinalVerdict struct {
	RootCauseText          string
	RootCauseCategory      Category
	Confidence             float64
	Explanation            string
	RecommendedActions     []string
	RemainingUncertainties []string
	EvidenceRefIDs         []string
	HypothesesSummary      []HypothesisSummary
	DurationMS             int64
	NeedsHuman             bool
	HumanQuestion          string
}

// HypothesisSummary is the compact form of a hypothesis embedded in a verdict.
type HypothesisSummary struct {
	ID          string
	Description string
	Category    Category
	Confidence  float64
	Status      HypothesisStatus
}

// DecideActionType is the closed set of actions the oracle's decide_next
// capability may return.
type DecideActionType string

const (
	ActionProbe       DecideActionType = "probe"
	ActionSpawnChild  DecideActionType = "spawn_child"
	ActionConclude    DecideActionType = "conclude"
)

// DecideAction is the oracle's decision for one sub-investigator iteration.
type DecideAction struct {
	Type       DecideActionType
	Source     string
	Capability string
	ChildDesc  string
	Reason     string
}

func fmtConfidence(c float64) string {
	return fmt.Sprintf("%.2f", c)
}

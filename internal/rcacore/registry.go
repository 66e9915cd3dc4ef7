package rcacore

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fourkites/rca-core/internal/logging"
)

// Capability is one named, invokable data-source operation. Adapter
// reimplementation of the underlying external collaborator is out of scope
// of this package — a Capability wraps whatever client already knows how to
// talk to the tracking API, warehouse, log store, etc.
type Capability interface {
	Descriptor() ProbeDescriptor
	// Invoke performs the probe. It must itself respect ctx cancellation and
	// must never panic on malformed params — validation happens before this
	// is called, but a defensive implementation is still expected.
	Invoke(ctx context.Context, params map[string]string) (payload map[string]interface{}, summary string, hint SupportHint, err error)
}

// Registry is the uniform façade over every registered capability.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
	logger       *logging.Logger
	deadlines    func(capability string) time.Duration
	cache        *lru.Cache[string, Finding]
}

// NewRegistry builds an empty registry. deadlines supplies the per-capability
// timeout; pass config.ProbeDeadline.
func NewRegistry(deadlines func(capability string) time.Duration) *Registry {
	cache, _ := lru.New[string, Finding](4096)
	return &Registry{
		capabilities: make(map[string]Capability),
		logger:       logging.GetLogger("rcacore.registry"),
		deadlines:    deadlines,
		cache:        cache,
	}
}

// Register adds a capability. Capabilities are expected to be registered
// before boot completes; this is not enforced here, but callers should treat
// the registered set as fixed once an investigation starts.
func (r *Registry) Register(c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[c.Descriptor().FullName()] = c
}

// CapabilityNames lists every registered "source/capability" identity, the
// vocabulary the oracle's decide_next and propose_hypotheses calls are
// validated against.
func (r *Registry) CapabilityNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether "source/capability" names a known capability.
func (r *Registry) IsRegistered(source, capability string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.capabilities[source+"/"+capability]
	return ok
}

// Invoke runs one probe. It validates params against the capability's
// declared required keys first; a missing key produces outcome=skipped, not
// a crash. Identical (source, capability, canonicalized params) calls return
// the cached Finding rather than re-invoking.
func (r *Registry) Invoke(ctx context.Context, source, capabilityName string, params map[string]string) Finding {
	full := source + "/" + capabilityName

	r.mu.RLock()
	cap, ok := r.capabilities[full]
	r.mu.RUnlock()

	if !ok {
		return Finding{
			ID:             FindingIdentity(source, capabilityName, params),
			SourceName:     source,
			CapabilityName: capabilityName,
			ProducedAt:     time.Now(),
			Outcome:        OutcomeSkipped,
			Summary:        fmt.Sprintf("capability %s is not registered", full),
			SupportsHint:   SupportHintUnknown,
		}
	}

	descriptor := cap.Descriptor()
	missing, typeErr := validateParams(descriptor, params)
	identity := FindingIdentity(source, capabilityName, params)

	if missing != "" {
		return Finding{
			ID: identity, SourceName: source, CapabilityName: capabilityName,
			ProducedAt: time.Now(), Outcome: OutcomeSkipped,
			Summary: fmt.Sprintf("missing required parameter %q", missing), SupportsHint: SupportHintUnknown,
		}
	}
	if typeErr != "" {
		return Finding{
			ID: identity, SourceName: source, CapabilityName: capabilityName,
			ProducedAt: time.Now(), Outcome: OutcomeSkipped,
			Summary: typeErr, SupportsHint: SupportHintUnknown,
		}
	}

	if cached, ok := r.cache.Get(identity); ok {
		r.logger.Debug("probe %s identity %s served from memoization cache", full, identity)
		return cached
	}

	deadline := 30 * time.Second
	if r.deadlines != nil {
		deadline = r.deadlines(capabilityName)
	}
	probeCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	payload, summary, hint, err := cap.Invoke(probeCtx, params)
	latency := time.Since(start)

	finding := Finding{
		ID:             identity,
		SourceName:     source,
		CapabilityName: capabilityName,
		ProducedAt:     time.Now(),
		LatencyMS:      latency.Milliseconds(),
		Payload:        payload,
		Summary:        summary,
		SupportsHint:   hint,
	}

	switch {
	case err != nil && probeCtx.Err() != nil:
		finding.Outcome = OutcomeTimeout
		finding.Summary = fmt.Sprintf("%s: deadline exceeded after %s", full, deadline)
	case err != nil:
		finding.Outcome = OutcomeError
		finding.Summary = err.Error()
		finding.Transient = isTransient(err)
	case payload == nil && summary == "":
		finding.Outcome = OutcomeNotFound
	default:
		finding.Outcome = OutcomeOK
	}

	r.cache.Add(identity, finding)
	return finding
}

func validateParams(d ProbeDescriptor, params map[string]string) (missingKey string, typeError string) {
	for key, typ := range d.RequiredParams {
		v, ok := params[key]
		if !ok || v == "" {
			return key, ""
		}
		if err := checkType(typ, v); err != "" {
			return "", fmt.Sprintf("parameter %q: %s", key, err)
		}
	}
	for key, typ := range d.OptionalParams {
		if v, ok := params[key]; ok && v != "" {
			if err := checkType(typ, v); err != "" {
				return "", fmt.Sprintf("parameter %q: %s", key, err)
			}
		}
	}
	return "", ""
}

func checkType(typ, value string) string {
	switch typ {
	case "int":
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return "expected integer, got " + value
		}
	case "date":
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return "expected YYYY-MM-DD date, got " + value
		}
	}
	return ""
}

// transientError marks an error as a plausibly-transient (network/5xx-class)
// failure, distinct from a permanent 4xx/not-found-class failure, without
// adding a new Outcome variant.
type transientError struct{ err error }

func (t transientError) Error() string { return t.err.Error() }
func (t transientError) Unwrap() error { return t.err }

// Transient wraps err to mark it as a retryable-class failure.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

func isTransient(err error) bool {
	_, ok := err.(transientError)
	return ok
}

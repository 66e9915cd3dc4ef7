package dataadapters

import (
	"time"

	"github.com/fourkites/rca-core/internal/rcacore"
)

// Endpoints configures where each data source lives. A blank URL disables
// that source's capabilities at registration time (useful for local runs
// against a subset of services).
type Endpoints struct {
	PlatformBaseURL  string
	WarehouseBaseURL string
	NetworkBaseURL   string
	CarrierBaseURL   string
	LogsBaseURL      string
	KVBaseURL        string
}

// RegisterAll wires every StandardDescriptors entry into registry as an
// HTTPCapability pointed at the matching endpoint, using deadline (called
// with the bare capability name) for per-probe timeouts, or 30s when
// deadline is nil.
func RegisterAll(registry *rcacore.Registry, endpoints Endpoints, deadline func(capability string) time.Duration) {
	baseFor := map[string]string{
		"platform":  endpoints.PlatformBaseURL,
		"warehouse": endpoints.WarehouseBaseURL,
		"network":   endpoints.NetworkBaseURL,
		"carrier":   endpoints.CarrierBaseURL,
		"logs":      endpoints.LogsBaseURL,
		"kv":        endpoints.KVBaseURL,
	}

	for _, descriptor := range rcacore.StandardDescriptors() {
		base := baseFor[descriptor.SourceName]
		if base == "" {
			continue
		}
		timeout := 30 * time.Second
		if deadline != nil {
			timeout = deadline(descriptor.CapabilityName)
		}
		cap := NewHTTPCapability(descriptor, base, timeout)
		if descriptor.FullName() == "carrier/webhook-delivery-history" {
			cap.SupportHintFromPayload = webhookFailureRateHint
		}
		registry.Register(cap)
	}
}

// webhookFailureRateHint flags a webhook-delivery-history result as
// contradicting the carrier-is-healthy assumption when more than a third of
// recent deliveries failed.
func webhookFailureRateHint(payload map[string]interface{}) rcacore.SupportHint {
	total, _ := payload["total_attempts"].(float64)
	failed, _ := payload["failed_attempts"].(float64)
	if total == 0 {
		return rcacore.SupportHintUnknown
	}
	if failed/total > 1.0/3 {
		return rcacore.SupportHintSupport
	}
	return rcacore.SupportHintContradict
}

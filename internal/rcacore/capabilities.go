package rcacore

// StandardDescriptors returns the ProbeDescriptor for every capability
// family a default deployment registers. Adapters (the actual clients that
// talk to the tracking API, warehouse, log store, etc.) are out of scope
// here — this only declares names and parameter contracts, the part the
// orchestrator and sub-investigator need to validate against.
func StandardDescriptors() []ProbeDescriptor {
	return []ProbeDescriptor{
		{SourceName: "platform", CapabilityName: "load-lookup-by-id",
			RequiredParams: map[string]string{"tracking_id": "int"}},
		{SourceName: "platform", CapabilityName: "load-lookup-by-number",
			RequiredParams: map[string]string{"load_number": "str"},
			OptionalParams: map[string]string{"shipper_id": "str"}},
		{SourceName: "warehouse", CapabilityName: "load-validation",
			OptionalParams: map[string]string{"tracking_id": "int", "load_number": "str"}},
		{SourceName: "warehouse", CapabilityName: "company-permalink",
			RequiredParams: map[string]string{"company_name": "str"}},
		{SourceName: "network", CapabilityName: "relationship",
			RequiredParams: map[string]string{"shipper_id": "str", "carrier_id": "str"}},
		{SourceName: "carrier", CapabilityName: "portal-scrape-history",
			RequiredParams: map[string]string{"subscription_id": "str"},
			OptionalParams: map[string]string{"window_days": "int"}},
		{SourceName: "carrier", CapabilityName: "webhook-delivery-history",
			RequiredParams: map[string]string{"tracking_id": "str"},
			OptionalParams: map[string]string{"window_days": "int"}},
		{SourceName: "logs", CapabilityName: "structured-search",
			RequiredParams: map[string]string{"service": "str", "start": "date", "end": "date", "search": "str"},
			OptionalParams: map[string]string{"tracking_id": "str"}},
		{SourceName: "kv", CapabilityName: "doc-search",
			RequiredParams: map[string]string{"keywords": "[str]"},
			OptionalParams: map[string]string{"space": "str"}},
	}
}

// paramMapping declares, per capability and parameter name, which identifier
// bag key to pull the value from. The oracle never specifies concrete
// parameter values — it only names a probe to run; this table supplies the
// values from whatever the investigation has learned about the shipment.
var paramMapping = map[string]map[string]IdentifierKey{
	"platform/load-lookup-by-id": {
		"tracking_id": IDTrackingID,
	},
	"platform/load-lookup-by-number": {
		"load_number": IDLoadNumber,
		"shipper_id":  IDShipperID,
	},
	"warehouse/load-validation": {
		"tracking_id": IDTrackingID,
		"load_number": IDLoadNumber,
	},
	"warehouse/company-permalink": {
		"company_name": IDShipperName,
	},
	// company_name additionally falls back to IDCarrierName; see
	// paramFallbackMapping below, since paramMapping only expresses a single
	// source key per parameter.
	"network/relationship": {
		"shipper_id": IDShipperID,
		"carrier_id": IDCarrierID,
	},
	"carrier/portal-scrape-history": {
		"subscription_id": IDSubscriptionID,
	},
	"carrier/webhook-delivery-history": {
		"tracking_id": IDTrackingID,
	},
	"logs/structured-search": {
		"tracking_id": IDTrackingID,
	},
}

// paramFallbackMapping supplies a second identifier-bag key to try when the
// primary paramMapping key is absent from the bag. Only parameters with a
// documented "or" source need an entry here.
var paramFallbackMapping = map[string]map[string]IdentifierKey{
	"warehouse/company-permalink": {
		"company_name": IDCarrierName,
	},
}

// FillParamsFromBag resolves a capability's declared parameters against the
// identifier bag. extra supplies values the declarative mapping cannot
// (window defaults, service/search-string/date-range for log search,
// keyword lists for doc search) — see the orchestrator and sub-investigator
// for callers. Returns the filled params and the name of the first required
// parameter still missing, if any ("" if none missing).
func FillParamsFromBag(descriptor ProbeDescriptor, bag *IdentifierBag, extra map[string]string) (params map[string]string, missingRequired string) {
	params = make(map[string]string)
	mapping := paramMapping[descriptor.FullName()]
	fallback := paramFallbackMapping[descriptor.FullName()]

	fill := func(name string) (string, bool) {
		if v, ok := extra[name]; ok && v != "" {
			return v, true
		}
		if key, ok := mapping[name]; ok {
			if v, ok := bag.Get(key); ok {
				return v, true
			}
		}
		if key, ok := fallback[name]; ok {
			if v, ok := bag.Get(key); ok {
				return v, true
			}
		}
		return "", false
	}

	for name := range descriptor.RequiredParams {
		v, ok := fill(name)
		if !ok {
			return params, name
		}
		params[name] = v
	}
	for name := range descriptor.OptionalParams {
		if v, ok := fill(name); ok {
			params[name] = v
		}
	}
	return params, ""
}

// descriptorByName looks up a registered descriptor's shape by full name,
// used when the sub-investigator needs to know the contract for a probe
// named by decide_next.
func descriptorByName(descriptors []ProbeDescriptor, fullName string) (ProbeDescriptor, bool) {
	for _, d := range descriptors {
		if d.FullName() == fullName {
			return d, true
		}
	}
	return ProbeDescriptor{}, false
}

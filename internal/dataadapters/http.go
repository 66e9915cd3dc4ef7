// Package dataadapters provides Capability implementations that talk to the
// platform's actual data sources (load service, warehouse, carrier portals,
// log store, knowledge base) over HTTP.
package dataadapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fourkites/rca-core/internal/logging"
	"github.com/fourkites/rca-core/internal/rcacore"
)

// HTTPCapability is a generic JSON-over-HTTP probe: it builds a query string
// from params against a base URL, issues a GET, and classifies the response.
// One instance is registered per capability in StandardDescriptors.
type HTTPCapability struct {
	descriptor rcacore.ProbeDescriptor
	baseURL    string
	client     *http.Client
	logger     *logging.Logger
	// SupportHintFromPayload lets a capability flag its own result as
	// supporting/contradicting a hypothesis before the oracle even sees it
	// (e.g. a webhook-history probe that computes a failure ratio itself).
	SupportHintFromPayload func(payload map[string]interface{}) rcacore.SupportHint
}

// NewHTTPCapability builds an adapter for one descriptor against baseURL.
func NewHTTPCapability(descriptor rcacore.ProbeDescriptor, baseURL string, timeout time.Duration) *HTTPCapability {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxConnsPerHost:     10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &HTTPCapability{
		descriptor: descriptor,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		client:     &http.Client{Transport: transport, Timeout: timeout},
		logger:     logging.GetLogger("dataadapters." + descriptor.SourceName),
	}
}

// Descriptor implements rcacore.Capability.
func (c *HTTPCapability) Descriptor() rcacore.ProbeDescriptor { return c.descriptor }

// Invoke implements rcacore.Capability: GET {baseURL}/{capability} with
// params as query string, expecting a JSON object response. A 404 maps to
// a not-found outcome (nil payload, empty summary) handled by the registry;
// a 5xx or a transport failure is a transient error, and any other 4xx is a
// non-transient error.
func (c *HTTPCapability) Invoke(ctx context.Context, params map[string]string) (map[string]interface{}, string, rcacore.SupportHint, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, c.descriptor.CapabilityName, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", rcacore.SupportHintUnknown, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", rcacore.SupportHintUnknown, rcacore.Transient(fmt.Errorf("%s: %w", c.descriptor.FullName(), err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", rcacore.SupportHintUnknown, nil
	}
	if resp.StatusCode >= 500 {
		return nil, "", rcacore.SupportHintUnknown, rcacore.Transient(fmt.Errorf("%s: server error %d", c.descriptor.FullName(), resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, "", rcacore.SupportHintUnknown, fmt.Errorf("%s: client error %d", c.descriptor.FullName(), resp.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", rcacore.SupportHintUnknown, fmt.Errorf("decode response: %w", err)
	}

	hint := rcacore.SupportHintUnknown
	if c.SupportHintFromPayload != nil {
		hint = c.SupportHintFromPayload(payload)
	}
	return payload, summarizePayload(payload), hint, nil
}

func summarizePayload(payload map[string]interface{}) string {
	if len(payload) == 0 {
		return "empty response"
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "response received"
	}
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}

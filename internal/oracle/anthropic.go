// Package oracle provides concrete implementations of rcacore.Oracle: a
// real LLM-backed reasoning façade and a deterministic mock for tests.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fourkites/rca-core/internal/logging"
	"github.com/fourkites/rca-core/internal/rcacore"
)

// AnthropicOracle implements rcacore.Oracle by forcing the model to answer
// each of the five capabilities through a single, schema-constrained tool
// call, so every response is parseable JSON rather than free text.
type AnthropicOracle struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *logging.Logger
}

// NewAnthropicOracle builds an oracle using the ANTHROPIC_API_KEY environment
// variable. Pass an explicit apiKey to override it.
func NewAnthropicOracle(apiKey, model string) *AnthropicOracle {
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	var client anthropic.Client
	if apiKey != "" {
		client = anthropic.NewClient(option.WithAPIKey(apiKey))
	} else {
		client = anthropic.NewClient()
	}
	return &AnthropicOracle{
		client:    client,
		model:     model,
		maxTokens: 2048,
		logger:    logging.GetLogger("oracle.anthropic"),
	}
}

// callTool sends one message, forces the model to respond via the named
// tool, and returns that tool call's JSON input.
func (o *AnthropicOracle) callTool(ctx context.Context, system, user, toolName, toolDesc string, schema map[string]interface{}) (json.RawMessage, error) {
	properties, _ := schema["properties"].(map[string]interface{})
	required, _ := schema["required"].([]string)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
		Tools: []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        toolName,
				Description: anthropic.String(toolDesc),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: toolName},
		},
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "tool_use" && block.Name == toolName {
			return block.Input, nil
		}
	}
	return nil, fmt.Errorf("anthropic response did not include the %s tool call", toolName)
}

var extractIdentifiersSchema = map[string]interface{}{
	"properties": map[string]interface{}{
		"tracking_id": map[string]interface{}{"type": "string"},
		"load_number": map[string]interface{}{"type": "string"},
		"ticket_id":   map[string]interface{}{"type": "string"},
		"shipper_id":  map[string]interface{}{"type": "string"},
		"carrier_id":  map[string]interface{}{"type": "string"},
	},
}

// ExtractIdentifiers implements rcacore.Oracle.
func (o *AnthropicOracle) ExtractIdentifiers(ctx context.Context, description string) (map[rcacore.IdentifierKey]string, error) {
	raw, err := o.callTool(ctx, extractIdentifiersSystemPrompt, description,
		"extract_identifiers", "Extract shipment identifiers mentioned in the incident text.", extractIdentifiersSchema)
	if err != nil {
		return nil, err
	}

	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("malformed extract_identifiers output: %w", err)
	}

	out := make(map[rcacore.IdentifierKey]string, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		out[rcacore.IdentifierKey(k)] = v
	}
	return out, nil
}

var proposeHypothesesSchema = map[string]interface{}{
	"properties": map[string]interface{}{
		"hypotheses": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"description":      map[string]interface{}{"type": "string"},
					"category":         map[string]interface{}{"type": "string"},
					"confidence":       map[string]interface{}{"type": "number"},
					"suggested_probes": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				},
			},
		},
	},
	"required": []string{"hypotheses"},
}

// ProposeHypotheses implements rcacore.Oracle.
func (o *AnthropicOracle) ProposeHypotheses(ctx context.Context, bag *rcacore.IdentifierBag, seedEvidence []rcacore.Finding) ([]rcacore.Hypothesis, error) {
	user := fmt.Sprintf("Known identifiers: %v\nSeed evidence: %s", bag.Snapshot(), summarizeFindings(seedEvidence))
	raw, err := o.callTool(ctx, proposeHypothesesSystemPrompt, user,
		"propose_hypotheses", "Propose 3-5 candidate root causes for this tracking incident.", proposeHypothesesSchema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Hypotheses []struct {
			Description     string   `json:"description"`
			Category        string   `json:"category"`
			Confidence      float64  `json:"confidence"`
			SuggestedProbes []string `json:"suggested_probes"`
		} `json:"hypotheses"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("malformed propose_hypotheses output: %w", err)
	}

	out := make([]rcacore.Hypothesis, 0, len(parsed.Hypotheses))
	for _, h := range parsed.Hypotheses {
		var probes []rcacore.ProbeDescriptor
		for _, p := range h.SuggestedProbes {
			probes = append(probes, parseProbeRef(p))
		}
		out = append(out, rcacore.Hypothesis{
			Description:     h.Description,
			Category:        rcacore.NormalizeCategory(h.Category),
			Confidence:      h.Confidence,
			Status:          rcacore.StatusOpen,
			SuggestedProbes: probes,
		})
	}
	return out, nil
}

var rescoreSchema = map[string]interface{}{
	"properties": map[string]interface{}{
		"verdict":        map[string]interface{}{"type": "string", "enum": []string{"support", "contradict", "unknown"}},
		"new_confidence": map[string]interface{}{"type": "number"},
		"rationale":      map[string]interface{}{"type": "string"},
	},
	"required": []string{"verdict", "new_confidence"},
}

// Rescore implements rcacore.Oracle.
func (o *AnthropicOracle) Rescore(ctx context.Context, h rcacore.Hypothesis, finding rcacore.Finding) (rcacore.RescoreResult, error) {
	user := fmt.Sprintf("Hypothesis: %s (category=%s, confidence=%.2f)\nNew finding: %s",
		h.Description, h.Category, h.Confidence, summarizeFindings([]rcacore.Finding{finding}))
	raw, err := o.callTool(ctx, rescoreSystemPrompt, user,
		"rescore", "Update the hypothesis confidence given this new evidence.", rescoreSchema)
	if err != nil {
		return rcacore.RescoreResult{}, err
	}

	var parsed struct {
		Verdict       string  `json:"verdict"`
		NewConfidence float64 `json:"new_confidence"`
		Rationale     string  `json:"rationale"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return rcacore.RescoreResult{}, fmt.Errorf("malformed rescore output: %w", err)
	}

	hint := rcacore.SupportHintUnknown
	switch parsed.Verdict {
	case string(rcacore.SupportHintSupport):
		hint = rcacore.SupportHintSupport
	case string(rcacore.SupportHintContradict):
		hint = rcacore.SupportHintContradict
	}
	return rcacore.RescoreResult{Verdict: hint, NewConfidence: parsed.NewConfidence, Rationale: parsed.Rationale}, nil
}

var decideNextSchema = map[string]interface{}{
	"properties": map[string]interface{}{
		"action":     map[string]interface{}{"type": "string", "enum": []string{"probe", "spawn_child", "conclude"}},
		"source":     map[string]interface{}{"type": "string"},
		"capability": map[string]interface{}{"type": "string"},
		"child_desc": map[string]interface{}{"type": "string"},
		"reason":     map[string]interface{}{"type": "string"},
	},
	"required": []string{"action"},
}

// DecideNext implements rcacore.Oracle.
func (o *AnthropicOracle) DecideNext(ctx context.Context, h rcacore.Hypothesis, evidenceSoFar []rcacore.Finding, availableSources []string) (rcacore.DecideAction, error) {
	user := fmt.Sprintf("Hypothesis: %s (confidence=%.2f)\nEvidence so far: %s\nAvailable sources: %v",
		h.Description, h.Confidence, summarizeFindings(evidenceSoFar), availableSources)
	raw, err := o.callTool(ctx, decideNextSystemPrompt, user,
		"decide_next", "Decide the next investigative action for this hypothesis.", decideNextSchema)
	if err != nil {
		return rcacore.DecideAction{}, err
	}

	var parsed struct {
		Action     string `json:"action"`
		Source     string `json:"source"`
		Capability string `json:"capability"`
		ChildDesc  string `json:"child_desc"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return rcacore.DecideAction{}, fmt.Errorf("malformed decide_next output: %w", err)
	}

	return rcacore.DecideAction{
		Type:       rcacore.DecideActionType(parsed.Action),
		Source:     parsed.Source,
		Capability: parsed.Capability,
		ChildDesc:  parsed.ChildDesc,
		Reason:     parsed.Reason,
	}, nil
}

var synthesizeSchema = map[string]interface{}{
	"properties": map[string]interface{}{
		"root_cause_text":         map[string]interface{}{"type": "string"},
		"root_cause_category":     map[string]interface{}{"type": "string"},
		"confidence":              map[string]interface{}{"type": "number"},
		"explanation":             map[string]interface{}{"type": "string"},
		"recommended_actions":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"remaining_uncertainties": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
	},
	"required": []string{"root_cause_category", "confidence"},
}

// Synthesize implements rcacore.Oracle.
func (o *AnthropicOracle) Synthesize(ctx context.Context, hypotheses []rcacore.Hypothesis, allEvidence []rcacore.Finding) (rcacore.FinalVerdict, error) {
	user := fmt.Sprintf("Hypotheses: %s\nAll evidence: %s", summarizeHypotheses(hypotheses), summarizeFindings(allEvidence))
	raw, err := o.callTool(ctx, synthesizeSystemPrompt, user,
		"synthesize", "Produce the final root-cause verdict for this investigation.", synthesizeSchema)
	if err != nil {
		return rcacore.FinalVerdict{}, err
	}

	var parsed struct {
		RootCauseText          string   `json:"root_cause_text"`
		RootCauseCategory      string   `json:"root_cause_category"`
		Confidence             float64  `json:"confidence"`
		Explanation            string   `json:"explanation"`
		RecommendedActions     []string `json:"recommended_actions"`
		RemainingUncertainties []string `json:"remaining_uncertainties"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return rcacore.FinalVerdict{}, fmt.Errorf("malformed synthesize output: %w", err)
	}

	return rcacore.FinalVerdict{
		RootCauseText:          parsed.RootCauseText,
		RootCauseCategory:      rcacore.NormalizeCategory(parsed.RootCauseCategory),
		Confidence:             parsed.Confidence,
		Explanation:            parsed.Explanation,
		RecommendedActions:     parsed.RecommendedActions,
		RemainingUncertainties: parsed.RemainingUncertainties,
	}, nil
}

// Package mcpserver exposes the Investigation Core as an MCP tool server, so
// an external agent (a support-ticket bot, a chat assistant) can call
// "investigate" the same way a human operator would call the CLI or HTTP API.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fourkites/rca-core/internal/logging"
	"github.com/fourkites/rca-core/internal/rcacore"
)

// Server wraps mcp-go's server.MCPServer with a single "investigate" tool
// backed by an Orchestrator.
type Server struct {
	mcpServer    *server.MCPServer
	orchestrator *rcacore.Orchestrator
	logger       *logging.Logger
}

const investigateToolName = "investigate"

var investigateSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"description": map[string]interface{}{
			"type":        "string",
			"description": "Free-text description of the tracking issue, e.g. pulled from a support ticket",
		},
		"tracking_id": map[string]interface{}{
			"type":        "string",
			"description": "Optional: known tracking id for the shipment",
		},
		"load_number": map[string]interface{}{
			"type":        "string",
			"description": "Optional: known load number",
		},
		"mode_hint": map[string]interface{}{
			"type":        "string",
			"description": "Optional: transport mode hint (ground|ocean|drayage|air)",
		},
	},
	"required": []string{"description"},
}

// New builds an MCP server with the investigate tool registered.
func New(orchestrator *rcacore.Orchestrator, version string) *Server {
	s := &Server{
		orchestrator: orchestrator,
		logger:       logging.GetLogger("mcpserver"),
	}

	s.mcpServer = server.NewMCPServer(
		"RCA Investigation Server",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	schemaJSON, err := json.Marshal(investigateSchema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal schema for tool %s: %v", investigateToolName, err))
	}
	tool := mcp.NewToolWithRawSchema(investigateToolName,
		"Run a root-cause investigation for a shipment-tracking incident and return the verdict", schemaJSON)
	s.mcpServer.AddTool(tool, s.handleInvestigate)

	return s
}

// ServeStdio blocks serving the MCP protocol over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

type investigateArgs struct {
	Description string `json:"description"`
	TrackingID  string `json:"tracking_id"`
	LoadNumber  string `json:"load_number"`
	ModeHint    string `json:"mode_hint"`
}

func (s *Server) handleInvestigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	var args investigateArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	incident := rcacore.Incident{
		Description: args.Description,
		TrackingID:  args.TrackingID,
		LoadNumber:  args.LoadNumber,
		ModeHint:    args.ModeHint,
	}
	if !incident.HasUsableInput() {
		return mcp.NewToolResultError("at least one of description, tracking_id, or load_number is required"), nil
	}

	stream := s.orchestrator.Investigate(ctx, incident)

	var verdictEvent *rcacore.Event
	for event := range stream.Events() {
		if event.Type == rcacore.EventVerdict {
			e := event
			verdictEvent = &e
		}
	}
	if verdictEvent == nil {
		return mcp.NewToolResultError("investigation ended without a verdict"), nil
	}

	resultJSON, err := json.MarshalIndent(verdictEvent, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

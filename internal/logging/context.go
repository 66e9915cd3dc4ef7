package logging

import "context"

type contextKey string

const (
	investigationIDKey contextKey = "investigation_id"
	agentIDKey         contextKey = "agent_id"
)

// InvestigationIDKey is the context key under which the active investigation
// id is stored, for automatic inclusion in log output.
func InvestigationIDKey() contextKey { return investigationIDKey }

// AgentIDKey is the context key under which a sub-investigator's agent id is
// stored, for automatic inclusion in log output.
func AgentIDKey() contextKey { return agentIDKey }

func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	var fields map[string]interface{}
	if v := ctx.Value(investigationIDKey); v != nil {
		if fields == nil {
			fields = make(map[string]interface{})
		}
		fields["investigation_id"] = v
	}
	if v := ctx.Value(agentIDKey); v != nil {
		if fields == nil {
			fields = make(map[string]interface{})
		}
		fields["agent_id"] = v
	}
	return fields
}

package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContextFields_NilContext(t *testing.T) {
	assert.Nil(t, extractContextFields(nil))
}

func TestExtractContextFields_EmptyContext(t *testing.T) {
	assert.Nil(t, extractContextFields(context.Background()))
}

func TestExtractContextFields_PopulatesBothKeys(t *testing.T) {
	ctx := context.WithValue(context.Background(), InvestigationIDKey(), "inv-1")
	ctx = context.WithValue(ctx, AgentIDKey(), "agent-1")

	fields := extractContextFields(ctx)

	assert.Equal(t, "inv-1", fields["investigation_id"])
	assert.Equal(t, "agent-1", fields["agent_id"])
}

func TestExtractContextFields_OnlyInvestigationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), InvestigationIDKey(), "inv-2")

	fields := extractContextFields(ctx)

	assert.Equal(t, "inv-2", fields["investigation_id"])
	_, hasAgent := fields["agent_id"]
	assert.False(t, hasAgent)
}

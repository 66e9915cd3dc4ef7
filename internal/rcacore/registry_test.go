package rcacore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapability struct {
	descriptor ProbeDescriptor
	invoke     func(ctx context.Context, params map[string]string) (map[string]interface{}, string, SupportHint, error)
	calls      int
}

func (f *fakeCapability) Descriptor() ProbeDescriptor { return f.descriptor }

func (f *fakeCapability) Invoke(ctx context.Context, params map[string]string) (map[string]interface{}, string, SupportHint, error) {
	f.calls++
	return f.invoke(ctx, params)
}

func fixedDeadlines(d time.Duration) func(string) time.Duration {
	return func(string) time.Duration { return d }
}

func TestRegistry_InvokeUnregisteredSkips(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Second))

	finding := r.Invoke(context.Background(), "platform", "load-lookup-by-id", nil)

	assert.Equal(t, OutcomeSkipped, finding.Outcome)
}

func TestRegistry_InvokeMissingRequiredParamSkips(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Second))
	cap := &fakeCapability{
		descriptor: ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}},
	}
	r.Register(cap)

	finding := r.Invoke(context.Background(), "platform", "load-lookup-by-id", map[string]string{})

	assert.Equal(t, OutcomeSkipped, finding.Outcome)
	assert.Equal(t, 0, cap.calls)
}

func TestRegistry_InvokeTypeMismatchSkips(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Second))
	cap := &fakeCapability{
		descriptor: ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}},
	}
	r.Register(cap)

	finding := r.Invoke(context.Background(), "platform", "load-lookup-by-id", map[string]string{"tracking_id": "not-an-int"})

	assert.Equal(t, OutcomeSkipped, finding.Outcome)
	assert.Equal(t, 0, cap.calls)
}

func TestRegistry_InvokeOK(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Second))
	cap := &fakeCapability{
		descriptor: ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}},
		invoke: func(ctx context.Context, params map[string]string) (map[string]interface{}, string, SupportHint, error) {
			return map[string]interface{}{"status": "in_transit"}, "load found", SupportHintSupport, nil
		},
	}
	r.Register(cap)

	finding := r.Invoke(context.Background(), "platform", "load-lookup-by-id", map[string]string{"tracking_id": "123"})

	assert.Equal(t, OutcomeOK, finding.Outcome)
	assert.Equal(t, "load found", finding.Summary)
}

func TestRegistry_InvokeErrorOutcome(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Second))
	cap := &fakeCapability{
		descriptor: ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}},
		invoke: func(ctx context.Context, params map[string]string) (map[string]interface{}, string, SupportHint, error) {
			return nil, "", SupportHintUnknown, assertError{"upstream exploded"}
		},
	}
	r.Register(cap)

	finding := r.Invoke(context.Background(), "platform", "load-lookup-by-id", map[string]string{"tracking_id": "123"})

	assert.Equal(t, OutcomeError, finding.Outcome)
	assert.False(t, finding.Transient)
}

func TestRegistry_InvokeTransientErrorIsFlagged(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Second))
	cap := &fakeCapability{
		descriptor: ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}},
		invoke: func(ctx context.Context, params map[string]string) (map[string]interface{}, string, SupportHint, error) {
			return nil, "", SupportHintUnknown, Transient(assertError{"503 from upstream"})
		},
	}
	r.Register(cap)

	finding := r.Invoke(context.Background(), "platform", "load-lookup-by-id", map[string]string{"tracking_id": "123"})

	assert.Equal(t, OutcomeError, finding.Outcome)
	assert.True(t, finding.Transient)
}

func TestRegistry_InvokeMemoizesByIdentity(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Second))
	cap := &fakeCapability{
		descriptor: ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}},
		invoke: func(ctx context.Context, params map[string]string) (map[string]interface{}, string, SupportHint, error) {
			return map[string]interface{}{"status": "ok"}, "found", SupportHintSupport, nil
		},
	}
	r.Register(cap)

	r.Invoke(context.Background(), "platform", "load-lookup-by-id", map[string]string{"tracking_id": "123"})
	r.Invoke(context.Background(), "platform", "load-lookup-by-id", map[string]string{"tracking_id": "123"})

	assert.Equal(t, 1, cap.calls)
}

func TestRegistry_InvokeTimesOut(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Millisecond))
	cap := &fakeCapability{
		descriptor: ProbeDescriptor{SourceName: "logs", CapabilityName: "structured-search"},
		invoke: func(ctx context.Context, params map[string]string) (map[string]interface{}, string, SupportHint, error) {
			<-ctx.Done()
			return nil, "", SupportHintUnknown, ctx.Err()
		},
	}
	r.Register(cap)

	finding := r.Invoke(context.Background(), "logs", "structured-search", map[string]string{})

	assert.Equal(t, OutcomeTimeout, finding.Outcome)
}

func TestRegistry_IsRegisteredAndNames(t *testing.T) {
	r := NewRegistry(fixedDeadlines(time.Second))
	cap := &fakeCapability{descriptor: ProbeDescriptor{SourceName: "network", CapabilityName: "relationship"}}
	r.Register(cap)

	require.True(t, r.IsRegistered("network", "relationship"))
	assert.Contains(t, r.CapabilityNames(), "network/relationship")
	assert.False(t, r.IsRegistered("network", "nonexistent"))
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }

package rcacore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvidenceStore_InsertAndGet(t *testing.T) {
	store := NewEvidenceStore()
	f := Finding{ID: "f1", SourceName: "platform", CapabilityName: "load-lookup-by-id", Outcome: OutcomeOK}

	store.Insert(f)

	got, ok := store.Get("f1")
	assert.True(t, ok)
	assert.Equal(t, f, got)
	assert.Equal(t, 1, store.Count())
}

func TestEvidenceStore_InsertDeduplicatesByID(t *testing.T) {
	store := NewEvidenceStore()
	store.Insert(Finding{ID: "f1", SourceName: "platform", CapabilityName: "load-lookup-by-id", Summary: "first"})
	store.Insert(Finding{ID: "f1", SourceName: "platform", CapabilityName: "load-lookup-by-id", Summary: "second"})

	assert.Equal(t, 1, store.Count())
	got, _ := store.Get("f1")
	assert.Equal(t, "first", got.Summary)
}

func TestEvidenceStore_BySourceCapabilityPreservesOrder(t *testing.T) {
	store := NewEvidenceStore()
	store.Insert(Finding{ID: "f1", SourceName: "logs", CapabilityName: "structured-search"})
	store.Insert(Finding{ID: "f2", SourceName: "platform", CapabilityName: "load-lookup-by-id"})
	store.Insert(Finding{ID: "f3", SourceName: "logs", CapabilityName: "structured-search"})

	findings := store.BySourceCapability("logs", "structured-search")

	assert.Len(t, findings, 2)
	assert.Equal(t, "f1", findings[0].ID)
	assert.Equal(t, "f3", findings[1].ID)
}

func TestEvidenceStore_SnapshotInsertionOrder(t *testing.T) {
	store := NewEvidenceStore()
	store.Insert(Finding{ID: "f1"})
	store.Insert(Finding{ID: "f2"})

	snap := store.Snapshot()
	assert.Equal(t, []string{"f1", "f2"}, []string{snap[0].ID, snap[1].ID})
}

func TestEvidenceStore_Exists(t *testing.T) {
	store := NewEvidenceStore()
	assert.False(t, store.Exists("missing"))
	store.Insert(Finding{ID: "f1"})
	assert.True(t, store.Exists("f1"))
}

package rcacore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillParamsFromBag_ResolvesFromMapping(t *testing.T) {
	bag := NewIdentifierBag()
	bag.Set(IDTrackingID, "123456")

	descriptor := ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}}

	params, missing := FillParamsFromBag(descriptor, bag, nil)

	assert.Empty(t, missing)
	assert.Equal(t, "123456", params["tracking_id"])
}

func TestFillParamsFromBag_ExtraOverridesBag(t *testing.T) {
	bag := NewIdentifierBag()
	bag.Set(IDTrackingID, "from-bag")

	descriptor := ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}}

	params, _ := FillParamsFromBag(descriptor, bag, map[string]string{"tracking_id": "from-extra"})

	assert.Equal(t, "from-extra", params["tracking_id"])
}

func TestFillParamsFromBag_MissingRequired(t *testing.T) {
	bag := NewIdentifierBag()
	descriptor := ProbeDescriptor{SourceName: "platform", CapabilityName: "load-lookup-by-id", RequiredParams: map[string]string{"tracking_id": "int"}}

	_, missing := FillParamsFromBag(descriptor, bag, nil)

	assert.Equal(t, "tracking_id", missing)
}

func TestFillParamsFromBag_OptionalOmittedWhenAbsent(t *testing.T) {
	bag := NewIdentifierBag()
	bag.Set(IDLoadNumber, "ABC1234")
	descriptor := ProbeDescriptor{
		SourceName: "platform", CapabilityName: "load-lookup-by-number",
		RequiredParams: map[string]string{"load_number": "str"},
		OptionalParams: map[string]string{"shipper_id": "str"},
	}

	params, missing := FillParamsFromBag(descriptor, bag, nil)

	assert.Empty(t, missing)
	assert.Equal(t, "ABC1234", params["load_number"])
	_, hasShipper := params["shipper_id"]
	assert.False(t, hasShipper)
}

func TestStandardDescriptors_AllNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range StandardDescriptors() {
		full := d.FullName()
		assert.False(t, seen[full], "duplicate descriptor name %s", full)
		seen[full] = true
	}
}

func TestDescriptorByName(t *testing.T) {
	descriptors := StandardDescriptors()

	found, ok := descriptorByName(descriptors, "kv/doc-search")
	assert.True(t, ok)
	assert.Equal(t, "kv", found.SourceName)

	_, ok = descriptorByName(descriptors, "kv/nonexistent")
	assert.False(t, ok)
}

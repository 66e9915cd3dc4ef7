package rcacore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID_HasPrefix(t *testing.T) {
	id := newID("hyp")
	assert.Contains(t, id, "hyp-")
}

func TestAgentIDSequencer_FirstUseGetsSuffixOne(t *testing.T) {
	seq := newAgentIDSequencer()
	assert.Equal(t, "carrier_portal_scrape_error-1", seq.next(CategoryCarrierPortalScrapeError))
}

func TestAgentIDSequencer_RepeatsIncrementSuffix(t *testing.T) {
	seq := newAgentIDSequencer()
	first := seq.next(CategoryLoadNotFound)
	second := seq.next(CategoryLoadNotFound)
	third := seq.next(CategoryLoadNotFound)

	assert.Equal(t, "load_not_found-1", first)
	assert.Equal(t, "load_not_found-2", second)
	assert.Equal(t, "load_not_found-3", third)
}

func TestAgentIDSequencer_IndependentPerCategory(t *testing.T) {
	seq := newAgentIDSequencer()
	a := seq.next(CategoryLoadNotFound)
	b := seq.next(CategoryCarrierPortalDown)

	assert.Equal(t, "load_not_found-1", a)
	assert.Equal(t, "carrier_portal_down-1", b)
}

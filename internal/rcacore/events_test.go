package rcacore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressPercent_WithinBand(t *testing.T) {
	assert.Equal(t, 40, ProgressPercent("probing", 0, 5))
	assert.Equal(t, 65, ProgressPercent("probing", 5, 10))
	assert.Equal(t, 90, ProgressPercent("probing", 5, 5))
}

func TestProgressPercent_UnknownPhase(t *testing.T) {
	assert.Equal(t, 0, ProgressPercent("nonexistent", 1, 1))
}

func TestProgressPercent_ZeroTotalReturnsBandFloor(t *testing.T) {
	assert.Equal(t, 30, ProgressPercent("forming", 0, 0))
}

func TestProgressPercent_ClampsOverage(t *testing.T) {
	assert.Equal(t, 90, ProgressPercent("probing", 99, 5))
}

func TestProgressPercent_DoneIsAlwaysComplete(t *testing.T) {
	assert.Equal(t, 100, ProgressPercent("done", 0, 0))
}

package rcatui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceBarStyle_PicksBandByThreshold(t *testing.T) {
	assert.Equal(t, barFilledStyle, confidenceBarStyle(0.9))
	assert.Equal(t, barFilledStyle, confidenceBarStyle(0.85))
	assert.Equal(t, barWarningStyle, confidenceBarStyle(0.6))
	assert.Equal(t, barDangerStyle, confidenceBarStyle(0.1))
}

func TestRenderBar_FullConfidenceFillsEntireWidth(t *testing.T) {
	out := renderBar(1.0, 10)

	assert.Equal(t, 10, strings.Count(out, "█"))
	assert.Equal(t, 0, strings.Count(out, "░"))
}

func TestRenderBar_ZeroConfidenceRendersAllEmpty(t *testing.T) {
	out := renderBar(0, 10)

	assert.Equal(t, 0, strings.Count(out, "█"))
	assert.Equal(t, 10, strings.Count(out, "░"))
}

func TestRenderBar_ClampsOutOfRangeConfidence(t *testing.T) {
	over := renderBar(2.0, 5)
	under := renderBar(-1.0, 5)

	assert.Equal(t, 5, strings.Count(over, "█"))
	assert.Equal(t, 0, strings.Count(under, "█"))
}

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRate_ZeroEntering(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.0, Rate(0, 5))
}

func TestRate_Basic(t *testing.T) {
	// 10 sessions entered, 3 reached the completion signal.
	assert.Equal(t, 70.0, Rate(10, 3))

	// 5 checkouts started, 2 orders created.
	assert.Equal(t, 60.0, Rate(5, 2))

	// All completed.
	assert.Equal(t, 0.0, Rate(4, 4))
}

func TestRate_RoundsHalfUpToOneDecimal(t *testing.T) {
	// 7/8 abandoned = 87.5 exactly.
	assert.Equal(t, 87.5, Rate(8, 1))

	// 1/3 abandoned = 33.333... rounds to 33.3.
	assert.Equal(t, 33.3, Rate(3, 2))

	// 2/3 abandoned = 66.666... rounds up to 66.7, never truncated.
	assert.Equal(t, 66.7, Rate(3, 1))
}

func TestRate_CompletionsExceedStarts(t *testing.T) {
	// Dropped start beacons can leave more completions than entries; the
	// rate clamps at 0 instead of going negative.
	assert.Equal(t, 0.0, Rate(2, 5))
}

func TestConversion(t *testing.T) {
	assert.Equal(t, 0.0, Conversion(0, 0))
	assert.Equal(t, 40.0, Conversion(5, 2))
	assert.Equal(t, 100.0, Conversion(3, 7))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 2.3, Round1(2.25))
	assert.Equal(t, 70.0, Round1(70.0))
	assert.Equal(t, 33.3, Round1(33.3333))
}

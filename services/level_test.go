package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLevelZero(t *testing.T) {
	info := ResolveLevel(0)
	assert.Equal(t, 1, info.Level)
	assert.Equal(t, int64(0), info.XPIntoLevel)
	assert.Equal(t, int64(100), info.XPForNextLevel)
	assert.Equal(t, 0, info.ProgressPercent)
}

func TestResolveLevelBoundaries(t *testing.T) {
	cases := []struct {
		totalXP int64
		level   int
	}{
		{0, 1},
		{25, 1}, // sqrt(25)/10 = 0.5 → floor 0 → level 1
		{99, 1},
		{100, 2}, // boundary between 1 and 2 at (1*10)^2
		{399, 2},
		{400, 3},
		{9999, 10},
		{10000, 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, ResolveLevel(tc.totalXP).Level, "totalXP=%d", tc.totalXP)
	}
}

func TestResolveLevelMonotonicAndBounded(t *testing.T) {
	prevLevel := 0
	for xp := int64(0); xp <= 50000; xp += 37 {
		info := ResolveLevel(xp)
		require.GreaterOrEqual(t, info.Level, prevLevel, "level must not decrease at xp=%d", xp)
		require.GreaterOrEqual(t, info.ProgressPercent, 0, "xp=%d", xp)
		require.LessOrEqual(t, info.ProgressPercent, 100, "xp=%d", xp)
		require.GreaterOrEqual(t, info.XPIntoLevel, int64(0), "xp=%d", xp)
		prevLevel = info.Level
	}
}

func TestResolveLevelProgressFraction(t *testing.T) {
	// Level 2 spans [100, 400): 250 sits at 50%
	info := ResolveLevel(250)
	assert.Equal(t, 2, info.Level)
	assert.Equal(t, int64(150), info.XPIntoLevel)
	assert.Equal(t, int64(300), info.XPForNextLevel)
	assert.Equal(t, 50, info.ProgressPercent)
}

func TestResolveLevelNegativeClamped(t *testing.T) {
	assert.Equal(t, ResolveLevel(0), ResolveLevel(-5))
}

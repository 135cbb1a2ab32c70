package services

import "math"

// LevelInfo is the display-ready resolution of a cumulative XP total.
type LevelInfo struct {
	Level           int   `json:"level"`
	XPIntoLevel     int64 `json:"xp_into_level"`
	XPForNextLevel  int64 `json:"xp_for_next_level"`
	ProgressPercent int   `json:"progress_percent"`
}

// levelThreshold returns the cumulative XP at which a level begins:
// ((level-1) * 10)^2, so level 2 starts at 100, level 3 at 400, and each
// additional level costs quadratically more.
func levelThreshold(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := int64(level-1) * 10
	return n * n
}

// ResolveLevel maps cumulative XP to a discrete level and the linear progress
// toward the next one: level = floor(sqrt(totalXP) / 10) + 1. Pure, total and
// monotonic; totalXP = 0 resolves to level 1 at 0%.
func ResolveLevel(totalXP int64) LevelInfo {
	if totalXP < 0 {
		totalXP = 0
	}
	level := int(math.Sqrt(float64(totalXP)))/10 + 1

	current := levelThreshold(level)
	next := levelThreshold(level + 1)
	span := next - current
	into := totalXP - current

	percent := int(into * 100 / span)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return LevelInfo{
		Level:           level,
		XPIntoLevel:     into,
		XPForNextLevel:  span,
		ProgressPercent: percent,
	}
}

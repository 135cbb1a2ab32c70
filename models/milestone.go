package models

import "time"

// MilestoneDef: static config for threshold-driven milestones, awarded
// automatically after a progress update.
type MilestoneDef struct {
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Rarity      string           `json:"rarity"` // common, rare, epic, legendary
	Threshold   map[string]int64 `json:"threshold"`
}

// UserMilestone: awarded instance, at most one per (user, code).
type UserMilestone struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string    `gorm:"not null;uniqueIndex:idx_user_milestone" json:"external_user_id"`
	Code           string    `gorm:"not null;uniqueIndex:idx_user_milestone" json:"code"`
	AwardedAt      time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

// MilestoneCatalog lists the milestones and the progress thresholds that
// unlock them.
var MilestoneCatalog = []MilestoneDef{
	{
		Code:        "FIRST_MISSION",
		Name:        "First Step",
		Description: "Completed your first mission",
		Rarity:      "common",
		Threshold:   map[string]int64{"total_missions": 1},
	},
	{
		Code:        "STREAK_7",
		Name:        "One Week Strong",
		Description: "Checked in 7 days in a row",
		Rarity:      "rare",
		Threshold:   map[string]int64{"current_streak": 7},
	},
	{
		Code:        "STREAK_21",
		Name:        "Habit Formed",
		Description: "Checked in 21 days in a row",
		Rarity:      "epic",
		Threshold:   map[string]int64{"current_streak": 21},
	},
	{
		Code:        "LEVEL_5",
		Name:        "Climbing",
		Description: "Reached level 5",
		Rarity:      "rare",
		Threshold:   map[string]int64{"level": 5},
	},
	{
		Code:        "VICTORIES_10",
		Name:        "Serial Winner",
		Description: "Recorded 10 victories",
		Rarity:      "rare",
		Threshold:   map[string]int64{"total_victories": 10},
	},
	{
		Code:        "PERFECT_5",
		Name:        "Perfectionist",
		Description: "Completed 5 perfect days",
		Rarity:      "epic",
		Threshold:   map[string]int64{"total_perfect_days": 5},
	},
}

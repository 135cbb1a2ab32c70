package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress tracks gamified progression for each user (denormalized for performance).
// One row per user, created once, never deleted; the engine is the only writer.
// Invariant: LongestStreak >= CurrentStreak at all times.
type UserProgress struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to identity provider

	// Core progression
	TotalXP     int64 `json:"total_xp" gorm:"default:0"`
	PowerTokens int64 `json:"power_tokens" gorm:"default:0"`

	// Streak state — one qualifying check-in per local calendar day
	CurrentStreak   int        `json:"current_streak" gorm:"default:0"`
	LongestStreak   int        `json:"longest_streak" gorm:"default:0"`
	LastCheckInDate *time.Time `json:"last_check_in_date,omitempty" gorm:"type:date"`

	// Activity counters
	TotalMissions    int64 `json:"total_missions" gorm:"default:0"`
	TotalVictories   int64 `json:"total_victories" gorm:"default:0"`
	TotalPerfectDays int64 `json:"total_perfect_days" gorm:"default:0"`

	// Leaderboard participation (opt-out)
	RankingVisible bool `json:"ranking_visible" gorm:"default:true"`

	// Milestones
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

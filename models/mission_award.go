package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MissionAward is the append-only XP ledger entry: exactly one row may exist
// per (user, mission, local date) — the composite unique index is the
// idempotency boundary. Rows are created once and never updated.
type MissionAward struct {
	ID             string             `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string             `gorm:"not null;uniqueIndex:idx_award_user_mission_date" json:"external_user_id"`
	MissionID      string             `gorm:"not null;uniqueIndex:idx_award_user_mission_date" json:"mission_id"`
	AwardDate      time.Time          `gorm:"type:date;not null;uniqueIndex:idx_award_user_mission_date;index" json:"award_date"`
	Category       MissionCategory    `gorm:"size:32" json:"category"`
	XPGranted      int64              `gorm:"not null" json:"xp_granted"`
	Metadata       CompletionMetadata `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
}

// CompletionMetadata describes how a mission was completed. It is a tagged
// union keyed by mission category, with Extra as the generic fallback for
// opaque free-form fields.
type CompletionMetadata struct {
	Category MissionCategory        `json:"category,omitempty"`
	Journal  *JournalMeta           `json:"journal,omitempty"`
	ScanInfo *ScanMeta              `json:"scan,omitempty"`
	Guided   *GuidedMeta            `json:"guided,omitempty"`
	Extra    map[string]interface{} `json:"extra,omitempty"`
}

type JournalMeta struct {
	WordCount int    `json:"word_count,omitempty"`
	Mood      string `json:"mood,omitempty"`
}

type ScanMeta struct {
	Situation string `json:"situation,omitempty"`
	Insight   string `json:"insight,omitempty"`
}

type GuidedMeta struct {
	ToolID          string `json:"tool_id,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// Value serializes the metadata for the jsonb column.
func (m CompletionMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan deserializes the jsonb column.
func (m *CompletionMetadata) Scan(src interface{}) error {
	if src == nil {
		*m = CompletionMetadata{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata column type %T", src)
	}
}

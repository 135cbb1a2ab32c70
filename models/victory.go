package models

import "time"

// Victory records one "I did it" moment. Append-only: it feeds the victories
// ranking metric and contributes its flat bonus to the XP total. No daily limit.
type Victory struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	LocalDate      time.Time `gorm:"type:date;not null;index" json:"local_date"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	Public         bool      `gorm:"default:false" json:"public"`
	XPGranted      int64     `gorm:"not null" json:"xp_granted"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// ProfileMirror is a local snapshot of identity-provider profile data the
// engine needs for ranking display and the country scope. Owned and managed
// solely by the engine; populated via the profile sync worker.
type ProfileMirror struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Alias          string  `gorm:"index;not null" json:"alias"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	CountryCode    *string `gorm:"index;size:2" json:"country_code,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

package models

import "time"

// Circle is a user-created group that backs the "circle" ranking scope.
type Circle struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	Slug    string `gorm:"uniqueIndex;not null" json:"slug"`
	OwnerID string `gorm:"index;not null" json:"owner_id"` // external user ID of the creator

	Timestamps
}

// CircleMember joins users to circles; a user may belong to several.
type CircleMember struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CircleID       string    `gorm:"not null;uniqueIndex:idx_circle_member" json:"circle_id"`
	ExternalUserID string    `gorm:"not null;uniqueIndex:idx_circle_member" json:"external_user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

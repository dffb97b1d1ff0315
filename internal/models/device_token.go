package models

import (
	"time"
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// DeviceToken is a push-delivery token registered by one of a user's devices.
// A token belongs to at most one user at a time; re-registering a token that
// another user owns transfers ownership (device handed to a new person).
// Rows are hard-deleted so a pruned token frees the unique index.
type DeviceToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint      `gorm:"not null;index" json:"user_id"`
	Token    string    `gorm:"uniqueIndex;not null" json:"-"`
	Platform Platform  `gorm:"type:varchar(10);not null" json:"platform"`
	LastUsed time.Time `json:"last_used"`
}

type DeviceTokenResponse struct {
	ID       uint      `json:"id"`
	Platform Platform  `json:"platform"`
	LastUsed time.Time `json:"last_used"`
}

func (d *DeviceToken) ToResponse() DeviceTokenResponse {
	return DeviceTokenResponse{
		ID:       d.ID,
		Platform: d.Platform,
		LastUsed: d.LastUsed,
	}
}

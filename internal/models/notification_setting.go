package models

import (
	"time"
)

// NotificationSetting is a user's opt-in/opt-out choice for one category.
// The absence of a row means the category's default (enabled for all current
// categories); the dispatcher must never treat a missing row as opt-out.
type NotificationSetting struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint                 `gorm:"not null;uniqueIndex:idx_user_category" json:"user_id"`
	Category NotificationCategory `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_category" json:"category"`
	Enabled  bool                 `gorm:"not null" json:"enabled"`
}

type NotificationSettingResponse struct {
	Category NotificationCategory `json:"category"`
	Enabled  bool                 `json:"enabled"`
}

func (s *NotificationSetting) ToResponse() NotificationSettingResponse {
	return NotificationSettingResponse{
		Category: s.Category,
		Enabled:  s.Enabled,
	}
}

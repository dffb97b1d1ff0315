package models

import (
	"time"

	"gorm.io/gorm"
)

// Announcement is a system-wide notice delivered as a single topic broadcast
// rather than a per-user fan-out. SendAt nil means "send on creation"; a
// future SendAt puts the announcement on the scheduled-broadcast track.
type Announcement struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title    string `gorm:"not null" json:"title"`
	Body     string `gorm:"type:text" json:"body"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`

	SendAt   *time.Time `gorm:"index" json:"send_at"`
	Notified bool       `gorm:"default:false;index" json:"notified"`
}

type AnnouncementResponse struct {
	ID        uint       `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	AuthorID  uint       `json:"author_id"`
	SendAt    *time.Time `json:"send_at"`
	Notified  bool       `json:"notified"`
	CreatedAt time.Time  `json:"created_at"`
}

func (a *Announcement) ToResponse() AnnouncementResponse {
	return AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		AuthorID:  a.AuthorID,
		SendAt:    a.SendAt,
		Notified:  a.Notified,
		CreatedAt: a.CreatedAt,
	}
}

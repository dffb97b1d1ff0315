package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONMap stores opaque notification payload data in a jsonb column.
type JSONMap map[string]string

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// NotificationHistory is the audit record of an attempted send. The row is
// created with Sent=false before the push attempt and flipped to Sent=true
// only when at least one recipient token succeeded. History rows are never
// used to drive retries.
type NotificationHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint                 `gorm:"not null;index" json:"user_id"`
	Category NotificationCategory `gorm:"type:varchar(32);not null" json:"category"`
	Title    string               `gorm:"not null" json:"title"`
	Body     string               `gorm:"type:text" json:"body"`
	Data     JSONMap              `gorm:"type:jsonb" json:"data"`

	Sent   bool       `gorm:"default:false" json:"sent"`
	SentAt *time.Time `json:"sent_at"`
	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}

type NotificationHistoryResponse struct {
	ID        uint                 `json:"id"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Data      JSONMap              `json:"data"`
	Sent      bool                 `json:"sent"`
	SentAt    *time.Time           `json:"sent_at"`
	IsRead    bool                 `json:"is_read"`
	ReadAt    *time.Time           `json:"read_at"`
	CreatedAt time.Time            `json:"created_at"`
}

func (h *NotificationHistory) ToResponse() NotificationHistoryResponse {
	return NotificationHistoryResponse{
		ID:        h.ID,
		Category:  h.Category,
		Title:     h.Title,
		Body:      h.Body,
		Data:      h.Data,
		Sent:      h.Sent,
		SentAt:    h.SentAt,
		IsRead:    h.IsRead,
		ReadAt:    h.ReadAt,
		CreatedAt: h.CreatedAt,
	}
}

package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
)

// Notification is a queued per-user push. It lives only in the queue store:
// pushed by a producer, popped exactly once by a worker, then discarded.
// An item on the ready queue has no meaningful ScheduledAt.
type Notification struct {
	ID          string                      `msgpack:"id" json:"id"`
	UserID      uint                        `msgpack:"user_id" json:"user_id"`
	Category    models.NotificationCategory `msgpack:"category" json:"category"`
	Title       string                      `msgpack:"title" json:"title"`
	Body        string                      `msgpack:"body" json:"body"`
	Data        map[string]string           `msgpack:"data,omitempty" json:"data,omitempty"`
	ScheduledAt *time.Time                  `msgpack:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
}

// NewNotification builds a queue item with a fresh ID for log traceability.
func NewNotification(userID uint, category models.NotificationCategory, title, body string, data map[string]string) Notification {
	return Notification{
		ID:       uuid.NewString(),
		UserID:   userID,
		Category: category,
		Title:    title,
		Body:     body,
		Data:     data,
	}
}

func (n Notification) Encode() ([]byte, error) {
	return msgpack.Marshal(n)
}

func DecodeNotification(data []byte) (Notification, error) {
	var n Notification
	err := msgpack.Unmarshal(data, &n)
	return n, err
}

// ScheduledAnnouncement is a queued broadcast on the announcement retry
// track. RetryCount starts at 0 and the item is dropped permanently once
// retries exhaust. A missed announcement is safer than a duplicate one.
type ScheduledAnnouncement struct {
	AnnouncementID uint   `msgpack:"announcement_id" json:"announcement_id"`
	Title          string `msgpack:"title" json:"title"`
	RetryCount     int    `msgpack:"retry_count" json:"retry_count"`
}

func (a ScheduledAnnouncement) Encode() ([]byte, error) {
	return msgpack.Marshal(a)
}

func DecodeScheduledAnnouncement(data []byte) (ScheduledAnnouncement, error) {
	var a ScheduledAnnouncement
	err := msgpack.Unmarshal(data, &a)
	return a, err
}

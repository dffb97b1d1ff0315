package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNoScheduledTime is returned when a scheduled enqueue is attempted on a
// notification without a scheduled time.
var ErrNoScheduledTime = errors.New("scheduled notification requires a scheduled time")

// Producer is the enqueue entry point used by feature code. Store errors
// surface to the caller, which decides whether to retry or drop.
type Producer struct {
	store Store
}

func NewProducer(store Store) *Producer {
	return &Producer{store: store}
}

// EnqueueImmediate pushes a notification onto the ready queue.
func (p *Producer) EnqueueImmediate(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.ScheduledAt = nil
	if err := p.store.PushReady(ctx, n); err != nil {
		return fmt.Errorf("enqueue immediate notification %s: %w", n.ID, err)
	}
	return nil
}

// EnqueueScheduled pushes a notification onto the waiting queue, scored by
// its scheduled time in epoch seconds.
func (p *Producer) EnqueueScheduled(ctx context.Context, n Notification) error {
	if n.ScheduledAt == nil {
		return ErrNoScheduledTime
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := p.store.PushWaiting(ctx, n, n.ScheduledAt.Unix()); err != nil {
		return fmt.Errorf("enqueue scheduled notification %s: %w", n.ID, err)
	}
	return nil
}

// ScheduleAnnouncement puts a broadcast announcement on the retry track.
func (p *Producer) ScheduleAnnouncement(ctx context.Context, a ScheduledAnnouncement, sendAt time.Time) error {
	if err := p.store.PushAnnouncement(ctx, a, sendAt.Unix()); err != nil {
		return fmt.Errorf("schedule announcement %d: %w", a.AnnouncementID, err)
	}
	return nil
}

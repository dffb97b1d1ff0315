package service

import (
	"context"
	"fmt"
	"time"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"github.com/show5116/family-planner-back-end-sub000/internal/queue"
	"github.com/show5116/family-planner-back-end-sub000/internal/repository"
)

// NotificationService is the producer API used by feature code (task
// reminders, Q&A answers, invites) plus the user-facing history reads.
type NotificationService struct {
	producer    *queue.Producer
	historyRepo repository.NotificationHistoryRepositoryInterface
}

func NewNotificationService(producer *queue.Producer, historyRepo repository.NotificationHistoryRepositoryInterface) *NotificationService {
	return &NotificationService{producer: producer, historyRepo: historyRepo}
}

// NotifyUser enqueues an immediate notification.
func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, category models.NotificationCategory, title, body string, data map[string]string) error {
	if !category.Valid() {
		return ErrUnknownCategory
	}
	n := queue.NewNotification(userID, category, title, body, data)
	return s.producer.EnqueueImmediate(ctx, n)
}

// ScheduleUser enqueues a notification for a future send time.
func (s *NotificationService) ScheduleUser(ctx context.Context, userID uint, category models.NotificationCategory, title, body string, data map[string]string, sendAt time.Time) error {
	if !category.Valid() {
		return ErrUnknownCategory
	}
	n := queue.NewNotification(userID, category, title, body, data)
	n.ScheduledAt = &sendAt
	return s.producer.EnqueueScheduled(ctx, n)
}

// ListHistory fetches a page of the user's notification history.
func (s *NotificationService) ListHistory(userID uint, cursor uint, limit int) ([]models.NotificationHistoryResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.historyRepo.FindByUser(userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	out := make([]models.NotificationHistoryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToResponse())
	}
	return out, nil
}

func (s *NotificationService) MarkRead(id uint, userID uint) error {
	return s.historyRepo.MarkRead(id, userID)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.historyRepo.CountUnread(userID)
}

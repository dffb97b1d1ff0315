package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"github.com/show5116/family-planner-back-end-sub000/internal/push"
	"github.com/show5116/family-planner-back-end-sub000/internal/repository"
)

var ErrUnknownCategory = errors.New("unknown notification category")

// NotificationSettingService manages per-category opt-in/opt-out. Toggling a
// broadcast category also moves all the user's device tokens on or off the
// gateway topic, as a fire-and-forget background task.
type NotificationSettingService struct {
	settingRepo repository.NotificationSettingRepositoryInterface
	tokenRepo   repository.DeviceTokenRepositoryInterface
	sender      push.Sender
	tasks       *BackgroundTasks
}

func NewNotificationSettingService(
	settingRepo repository.NotificationSettingRepositoryInterface,
	tokenRepo repository.DeviceTokenRepositoryInterface,
	sender push.Sender,
	tasks *BackgroundTasks,
) *NotificationSettingService {
	return &NotificationSettingService{
		settingRepo: settingRepo,
		tokenRepo:   tokenRepo,
		sender:      sender,
		tasks:       tasks,
	}
}

// List returns one entry per known category, merging stored rows with
// category defaults for the rows that do not exist.
func (s *NotificationSettingService) List(userID uint) ([]models.NotificationSettingResponse, error) {
	stored, err := s.settingRepo.FindByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}

	byCategory := make(map[models.NotificationCategory]bool, len(stored))
	for _, setting := range stored {
		byCategory[setting.Category] = setting.Enabled
	}

	out := make([]models.NotificationSettingResponse, 0, len(models.Categories()))
	for _, category := range models.Categories() {
		enabled, ok := byCategory[category]
		if !ok {
			enabled = category.Info().DefaultEnabled
		}
		out = append(out, models.NotificationSettingResponse{Category: category, Enabled: enabled})
	}
	return out, nil
}

// Update stores the user's choice for one category.
func (s *NotificationSettingService) Update(userID uint, category models.NotificationCategory, enabled bool) error {
	if !category.Valid() {
		return ErrUnknownCategory
	}

	setting := &models.NotificationSetting{
		UserID:   userID,
		Category: category,
		Enabled:  enabled,
	}
	if err := s.settingRepo.Upsert(setting); err != nil {
		return fmt.Errorf("update setting: %w", err)
	}

	if category.IsBroadcast() {
		s.submitTopicSync(userID, category, enabled)
	}
	return nil
}

func (s *NotificationSettingService) submitTopicSync(userID uint, category models.NotificationCategory, enabled bool) {
	if s.tasks == nil || s.sender == nil {
		return
	}
	topic := category.Info().Topic
	s.tasks.Submit("topic-sync", func(ctx context.Context) error {
		rows, err := s.tokenRepo.FindByUser(userID)
		if err != nil {
			return fmt.Errorf("topic sync token lookup: %w", err)
		}
		tokens := make([]string, 0, len(rows))
		for _, row := range rows {
			tokens = append(tokens, row.Token)
		}
		if enabled {
			return s.sender.SubscribeToTopic(ctx, tokens, topic)
		}
		return s.sender.UnsubscribeFromTopic(ctx, tokens, topic)
	})
}

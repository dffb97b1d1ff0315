package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"github.com/show5116/family-planner-back-end-sub000/internal/push"
	"github.com/show5116/family-planner-back-end-sub000/internal/repository"
)

// DeviceTokenService manages push token registration. Token changes
// invalidate the whole cache entry for the affected users; the cache is
// never patched in place. Topic subscription updates run as fire-and-forget
// background tasks so gateway hiccups never fail a registration call.
type DeviceTokenService struct {
	tokenRepo   repository.DeviceTokenRepositoryInterface
	settingRepo repository.NotificationSettingRepositoryInterface
	tokenCache  TokenCache
	sender      push.Sender
	tasks       *BackgroundTasks
}

func NewDeviceTokenService(
	tokenRepo repository.DeviceTokenRepositoryInterface,
	settingRepo repository.NotificationSettingRepositoryInterface,
	tokenCache TokenCache,
	sender push.Sender,
	tasks *BackgroundTasks,
) *DeviceTokenService {
	return &DeviceTokenService{
		tokenRepo:   tokenRepo,
		settingRepo: settingRepo,
		tokenCache:  tokenCache,
		sender:      sender,
		tasks:       tasks,
	}
}

// Register creates or refreshes a device token. Registering a token owned by
// a different user transfers it: the old owner loses the device's topic
// subscriptions and both users' caches are invalidated.
func (s *DeviceTokenService) Register(userID uint, token string, platform models.Platform) (*models.DeviceToken, error) {
	saved, previousOwner, err := s.tokenRepo.Save(userID, token, platform)
	if err != nil {
		return nil, fmt.Errorf("register token: %w", err)
	}

	if s.tokenCache != nil {
		_ = s.tokenCache.Invalidate(userID)
		if previousOwner != 0 {
			_ = s.tokenCache.Invalidate(previousOwner)
		}
	}

	if previousOwner != 0 {
		log.Printf("Device token transferred from user %d to user %d", previousOwner, userID)
		s.submitUnsubscribeAll(token)
	}
	s.submitSubscribe(userID, token)

	return saved, nil
}

// Remove deletes a token the user owns and revokes its topic subscriptions.
func (s *DeviceTokenService) Remove(userID uint, token string) error {
	if err := s.tokenRepo.Delete(userID, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	if s.tokenCache != nil {
		_ = s.tokenCache.Invalidate(userID)
	}
	s.submitUnsubscribeAll(token)
	return nil
}

// List returns the user's registered devices.
func (s *DeviceTokenService) List(userID uint) ([]models.DeviceToken, error) {
	return s.tokenRepo.FindByUser(userID)
}

// submitSubscribe subscribes the token to the topics of every broadcast
// category the user has enabled (or left at the enabled default).
func (s *DeviceTokenService) submitSubscribe(userID uint, token string) {
	if s.tasks == nil || s.sender == nil {
		return
	}
	for _, category := range models.Categories() {
		if !category.IsBroadcast() {
			continue
		}
		category := category
		if !s.enabledFor(userID, category) {
			continue
		}
		topic := category.Info().Topic
		s.tasks.Submit("topic-subscribe", func(ctx context.Context) error {
			return s.sender.SubscribeToTopic(ctx, []string{token}, topic)
		})
	}
}

// submitUnsubscribeAll removes the token from every broadcast topic.
// Unsubscribing a token that was never subscribed is harmless.
func (s *DeviceTokenService) submitUnsubscribeAll(token string) {
	if s.tasks == nil || s.sender == nil {
		return
	}
	for _, category := range models.Categories() {
		if !category.IsBroadcast() {
			continue
		}
		topic := category.Info().Topic
		s.tasks.Submit("topic-unsubscribe", func(ctx context.Context) error {
			return s.sender.UnsubscribeFromTopic(ctx, []string{token}, topic)
		})
	}
}

func (s *DeviceTokenService) enabledFor(userID uint, category models.NotificationCategory) bool {
	setting, err := s.settingRepo.Find(userID, category)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Setting lookup failed for user %d category %s: %v", userID, category, err)
		}
		return category.Info().DefaultEnabled
	}
	return setting.Enabled
}

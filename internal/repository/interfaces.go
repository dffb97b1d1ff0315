package repository

import (
	"time"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
)

// DeviceTokenRepositoryInterface defines the contract for device token repository operations
type DeviceTokenRepositoryInterface interface {
	FindByUser(userID uint) ([]models.DeviceToken, error)
	FindByToken(token string) (*models.DeviceToken, error)
	Save(userID uint, token string, platform models.Platform) (*models.DeviceToken, uint, error)
	Delete(userID uint, token string) error
	DeleteByTokens(tokens []string) error
}

// NotificationSettingRepositoryInterface defines the contract for notification setting repository operations
type NotificationSettingRepositoryInterface interface {
	Find(userID uint, category models.NotificationCategory) (*models.NotificationSetting, error)
	FindByUser(userID uint) ([]models.NotificationSetting, error)
	Upsert(setting *models.NotificationSetting) error
}

// NotificationHistoryRepositoryInterface defines the contract for notification history repository operations
type NotificationHistoryRepositoryInterface interface {
	Create(history *models.NotificationHistory) error
	MarkSent(id uint, sentAt time.Time) error
	FindByUser(userID uint, cursor uint, limit int) ([]models.NotificationHistory, error)
	MarkRead(id uint, userID uint) error
	CountUnread(userID uint) (int64, error)
}

// AnnouncementRepositoryInterface defines the contract for announcement repository operations
type AnnouncementRepositoryInterface interface {
	Create(announcement *models.Announcement) error
	FindByID(id uint) (*models.Announcement, error)
	MarkNotified(id uint) error
	FindUnnotifiedScheduled() ([]models.Announcement, error)
}

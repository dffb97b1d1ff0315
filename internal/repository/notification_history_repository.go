package repository

import (
	"time"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"gorm.io/gorm"
)

type NotificationHistoryRepository struct {
	db *gorm.DB
}

func NewNotificationHistoryRepository(db *gorm.DB) *NotificationHistoryRepository {
	return &NotificationHistoryRepository{db: db}
}

func (r *NotificationHistoryRepository) Create(history *models.NotificationHistory) error {
	return r.db.Create(history).Error
}

func (r *NotificationHistoryRepository) MarkSent(id uint, sentAt time.Time) error {
	return r.db.Model(&models.NotificationHistory{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"sent": true, "sent_at": sentAt}).Error
}

// FindByUser fetches history newest-first with cursor-based pagination.
func (r *NotificationHistoryRepository) FindByUser(userID uint, cursor uint, limit int) ([]models.NotificationHistory, error) {
	var rows []models.NotificationHistory
	query := r.db.Where("user_id = ?", userID)
	if cursor > 0 {
		query = query.Where("id < ?", cursor)
	}
	err := query.Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *NotificationHistoryRepository) MarkRead(id uint, userID uint) error {
	now := time.Now()
	result := r.db.Model(&models.NotificationHistory{}).
		Where("id = ? AND user_id = ? AND is_read = false", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationHistoryRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.NotificationHistory{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&count).Error
	return count, err
}

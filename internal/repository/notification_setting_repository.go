package repository

import (
	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationSettingRepository struct {
	db *gorm.DB
}

func NewNotificationSettingRepository(db *gorm.DB) *NotificationSettingRepository {
	return &NotificationSettingRepository{db: db}
}

// Find returns gorm.ErrRecordNotFound when no row exists; callers must treat
// that as the category default, not as opt-out.
func (r *NotificationSettingRepository) Find(userID uint, category models.NotificationCategory) (*models.NotificationSetting, error) {
	var setting models.NotificationSetting
	err := r.db.Where("user_id = ? AND category = ?", userID, category).First(&setting).Error
	return &setting, err
}

func (r *NotificationSettingRepository) FindByUser(userID uint) ([]models.NotificationSetting, error) {
	var settings []models.NotificationSetting
	err := r.db.Where("user_id = ?", userID).Find(&settings).Error
	return settings, err
}

func (r *NotificationSettingRepository) Upsert(setting *models.NotificationSetting) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(setting).Error
}

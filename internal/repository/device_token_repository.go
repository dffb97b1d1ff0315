package repository

import (
	"errors"
	"time"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"gorm.io/gorm"
)

type DeviceTokenRepository struct {
	db *gorm.DB
}

func NewDeviceTokenRepository(db *gorm.DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

func (r *DeviceTokenRepository) FindByUser(userID uint) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}

func (r *DeviceTokenRepository) FindByToken(token string) (*models.DeviceToken, error) {
	var row models.DeviceToken
	err := r.db.Where("token = ?", token).First(&row).Error
	return &row, err
}

// Save registers a token for a user. If the token is new, a row is created.
// If the user already owns it, LastUsed is refreshed. If a different user
// owns it, ownership transfers and the previous owner's id is returned so
// the caller can revoke subscriptions and invalidate caches.
func (r *DeviceTokenRepository) Save(userID uint, token string, platform models.Platform) (*models.DeviceToken, uint, error) {
	existing, err := r.FindByToken(token)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, err
		}
		row := &models.DeviceToken{
			UserID:   userID,
			Token:    token,
			Platform: platform,
			LastUsed: time.Now(),
		}
		if err := r.db.Create(row).Error; err != nil {
			return nil, 0, err
		}
		return row, 0, nil
	}

	var previousOwner uint
	if existing.UserID != userID {
		previousOwner = existing.UserID
		existing.UserID = userID
	}
	existing.Platform = platform
	existing.LastUsed = time.Now()
	if err := r.db.Save(existing).Error; err != nil {
		return nil, 0, err
	}
	return existing, previousOwner, nil
}

func (r *DeviceTokenRepository) Delete(userID uint, token string) error {
	return r.db.Where("user_id = ? AND token = ?", userID, token).Delete(&models.DeviceToken{}).Error
}

func (r *DeviceTokenRepository) DeleteByTokens(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.Where("token IN ?", tokens).Delete(&models.DeviceToken{}).Error
}

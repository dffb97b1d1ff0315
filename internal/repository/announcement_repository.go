package repository

import (
	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(announcement *models.Announcement) error {
	return r.db.Create(announcement).Error
}

func (r *AnnouncementRepository) FindByID(id uint) (*models.Announcement, error) {
	var announcement models.Announcement
	err := r.db.First(&announcement, id).Error
	return &announcement, err
}

func (r *AnnouncementRepository) MarkNotified(id uint) error {
	return r.db.Model(&models.Announcement{}).Where("id = ?", id).Update("notified", true).Error
}

// FindUnnotifiedScheduled returns scheduled announcements that were never
// broadcast. Past-due rows are included: a restart between scheduling and
// sending loses the queue entry, and re-inserting the row recovers it.
func (r *AnnouncementRepository) FindUnnotifiedScheduled() ([]models.Announcement, error) {
	var rows []models.Announcement
	err := r.db.Where("send_at IS NOT NULL AND notified = false").Find(&rows).Error
	return rows, err
}

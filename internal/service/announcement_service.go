package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"github.com/show5116/family-planner-back-end-sub000/internal/push"
	"github.com/show5116/family-planner-back-end-sub000/internal/queue"
	"github.com/show5116/family-planner-back-end-sub000/internal/repository"
)

const (
	// MaxAnnouncementAttempts caps the broadcast track at three sends per
	// announcement. After the third failure the item is dropped for good:
	// a missed announcement is safer than a duplicate one.
	MaxAnnouncementAttempts = 3
	announcementRetryDelay  = 5 * time.Minute
)

// AnnouncementService owns system-wide announcements. Delivery is a single
// topic broadcast (one gateway call instead of a per-user fan-out) and the
// scheduled/failed path goes through the announcement retry track.
type AnnouncementService struct {
	announcementRepo repository.AnnouncementRepositoryInterface
	producer         *queue.Producer
	sender           push.Sender
}

func NewAnnouncementService(
	announcementRepo repository.AnnouncementRepositoryInterface,
	producer *queue.Producer,
	sender push.Sender,
) *AnnouncementService {
	return &AnnouncementService{
		announcementRepo: announcementRepo,
		producer:         producer,
		sender:           sender,
	}
}

// Create persists an announcement and either broadcasts it now or schedules
// it. An immediate broadcast that fails is put on the retry track rather
// than failing the creation call.
func (s *AnnouncementService) Create(ctx context.Context, authorID uint, title, body string, sendAt *time.Time) (*models.Announcement, error) {
	announcement := &models.Announcement{
		Title:    title,
		Body:     body,
		AuthorID: authorID,
		SendAt:   sendAt,
	}
	if err := s.announcementRepo.Create(announcement); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}

	item := queue.ScheduledAnnouncement{
		AnnouncementID: announcement.ID,
		Title:          title,
	}

	if sendAt != nil && sendAt.After(time.Now()) {
		if err := s.producer.ScheduleAnnouncement(ctx, item, *sendAt); err != nil {
			return nil, err
		}
		return announcement, nil
	}

	if err := s.broadcast(ctx, announcement); err != nil {
		log.Printf("Announcement %d: immediate broadcast failed, scheduling retry: %v", announcement.ID, err)
		if err := s.producer.ScheduleAnnouncement(ctx, item, time.Now().Add(announcementRetryDelay)); err != nil {
			log.Printf("Announcement %d: retry scheduling failed: %v", announcement.ID, err)
		}
		return announcement, nil
	}

	if err := s.announcementRepo.MarkNotified(announcement.ID); err != nil {
		log.Printf("Announcement %d: mark notified failed: %v", announcement.ID, err)
	}
	announcement.Notified = true
	return announcement, nil
}

func (s *AnnouncementService) Get(id uint) (*models.Announcement, error) {
	return s.announcementRepo.FindByID(id)
}

// DeliverScheduled sends one due item from the announcement retry track. On
// failure the item is re-enqueued with an incremented retry count and a
// fixed delay until attempts exhaust; then it is dropped permanently.
func (s *AnnouncementService) DeliverScheduled(ctx context.Context, item queue.ScheduledAnnouncement) {
	announcement, err := s.announcementRepo.FindByID(item.AnnouncementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Announcement %d: deleted before broadcast, dropping", item.AnnouncementID)
		} else {
			log.Printf("Announcement %d: lookup failed, dropping: %v", item.AnnouncementID, err)
		}
		return
	}
	if announcement.Notified {
		// Already broadcast (e.g. recovery re-inserted an item that a live
		// worker had in flight). Never send twice.
		return
	}

	if sendErr := s.broadcast(ctx, announcement); sendErr != nil {
		if item.RetryCount+1 < MaxAnnouncementAttempts {
			retry := queue.ScheduledAnnouncement{
				AnnouncementID: item.AnnouncementID,
				Title:          item.Title,
				RetryCount:     item.RetryCount + 1,
			}
			if err := s.producer.ScheduleAnnouncement(ctx, retry, time.Now().Add(announcementRetryDelay)); err != nil {
				log.Printf("Announcement %d: retry scheduling failed: %v", item.AnnouncementID, err)
			} else {
				log.Printf("Announcement %d: broadcast failed, retry %d scheduled: %v", item.AnnouncementID, retry.RetryCount, sendErr)
			}
		} else {
			log.Printf("Announcement %d: giving up after %d attempts: %v", item.AnnouncementID, item.RetryCount+1, sendErr)
		}
		return
	}

	if err := s.announcementRepo.MarkNotified(announcement.ID); err != nil {
		log.Printf("Announcement %d: mark notified failed: %v", announcement.ID, err)
	}
}

// RecoverScheduled re-inserts unsent scheduled announcements into the retry
// track. Run once at startup: a restart between scheduling and sending
// loses the queue entry, and the system-of-record is the source of truth.
func (s *AnnouncementService) RecoverScheduled(ctx context.Context) error {
	rows, err := s.announcementRepo.FindUnnotifiedScheduled()
	if err != nil {
		return fmt.Errorf("recover scheduled announcements: %w", err)
	}
	for _, announcement := range rows {
		item := queue.ScheduledAnnouncement{
			AnnouncementID: announcement.ID,
			Title:          announcement.Title,
		}
		if err := s.producer.ScheduleAnnouncement(ctx, item, *announcement.SendAt); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		log.Printf("Recovered %d scheduled announcements into the retry track", len(rows))
	}
	return nil
}

func (s *AnnouncementService) broadcast(ctx context.Context, announcement *models.Announcement) error {
	if s.sender == nil {
		return errors.New("push gateway not configured")
	}
	info := models.CategoryAnnouncement.Info()
	return s.sender.SendToTopic(ctx, info.Topic, push.Payload{
		Title:        announcement.Title,
		Body:         announcement.Body,
		Data:         map[string]string{"announcement_id": strconv.FormatUint(uint64(announcement.ID), 10)},
		HighPriority: info.HighPriority,
	})
}

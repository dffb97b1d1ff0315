package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/show5116/family-planner-back-end-sub000/internal/queue"
)

const (
	sweepInterval  = time.Minute
	retryInterval  = time.Minute
	depthInterval  = 5 * time.Minute
	retryBatchSize = 100
)

// AnnouncementDeliverer handles due items from the announcement retry track.
type AnnouncementDeliverer interface {
	DeliverScheduled(ctx context.Context, item queue.ScheduledAnnouncement)
	RecoverScheduled(ctx context.Context) error
}

// Scheduler runs the periodic jobs around the queue store: moving due
// waiting items to the ready queue, draining the announcement retry track,
// and logging queue depth for capacity observability.
type Scheduler struct {
	store         queue.Store
	announcements AnnouncementDeliverer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(store queue.Store, announcements AnnouncementDeliverer) *Scheduler {
	return &Scheduler{store: store, announcements: announcements}
}

// Start runs startup recovery once, then the periodic jobs until the
// context is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	if err := s.announcements.RecoverScheduled(ctx); err != nil {
		log.Printf("Scheduled announcement recovery failed: %v", err)
	}

	s.spawn(ctx, sweepInterval, s.moveWaitingToReady)
	s.spawn(ctx, retryInterval, s.retryAnnouncements)
	s.spawn(ctx, depthInterval, s.logQueueDepth)
}

func (s *Scheduler) spawn(ctx context.Context, interval time.Duration, job func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				job(ctx)
			}
		}
	}()
}

func (s *Scheduler) moveWaitingToReady(ctx context.Context) {
	moved, err := s.store.MoveDueToReady(ctx, time.Now().Unix())
	if err != nil {
		log.Printf("Queue sweep failed: %v", err)
		return
	}
	if moved > 0 {
		log.Printf("Queue sweep moved %d due notifications to ready", moved)
	}
}

func (s *Scheduler) retryAnnouncements(ctx context.Context) {
	items, err := s.store.PopDueAnnouncements(ctx, time.Now().Unix(), retryBatchSize)
	if err != nil {
		log.Printf("Announcement sweep failed: %v", err)
		return
	}
	for _, item := range items {
		s.announcements.DeliverScheduled(ctx, item)
	}
}

func (s *Scheduler) logQueueDepth(ctx context.Context) {
	ready, err := s.store.ReadySize(ctx)
	if err != nil {
		log.Printf("Queue depth check failed: %v", err)
		return
	}
	waiting, _ := s.store.WaitingSize(ctx)
	announcements, _ := s.store.AnnouncementSize(ctx)
	log.Printf("Queue depth: ready=%d waiting=%d announcements=%d", ready, waiting, announcements)
}

// Stop halts the periodic jobs and waits for a running iteration to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

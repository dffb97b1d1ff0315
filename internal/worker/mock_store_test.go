package worker

import (
	"context"
	"sync"
	"time"

	"github.com/show5116/family-planner-back-end-sub000/internal/queue"
)

type scoredItem struct {
	n     queue.Notification
	score int64
}

type scoredAnnouncement struct {
	item  queue.ScheduledAnnouncement
	score int64
}

// mockStore is an in-memory queue.Store with the same pop semantics as the
// Redis store: each ready item is handed to exactly one caller, and a
// blocking pop on an empty queue waits until an item arrives or the timeout
// elapses.
type mockStore struct {
	mu            sync.Mutex
	ready         []queue.Notification
	waiting       []scoredItem
	announcements []scoredAnnouncement
	popErr        error
	sizeErr       error
}

func newMockStore() *mockStore {
	return &mockStore{}
}

func (m *mockStore) PushReady(ctx context.Context, n queue.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = append(m.ready, n)
	return nil
}

func (m *mockStore) PopReady(ctx context.Context) (*queue.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.popErr != nil {
		return nil, m.popErr
	}
	if len(m.ready) == 0 {
		return nil, nil
	}
	n := m.ready[0]
	m.ready = m.ready[1:]
	return &n, nil
}

func (m *mockStore) BlockingPopReady(ctx context.Context, timeout time.Duration) (*queue.Notification, error) {
	deadline := time.Now().Add(timeout)
	for {
		n, err := m.PopReady(ctx)
		if err != nil || n != nil {
			return n, err
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(time.Millisecond):
		}
	}
}

func (m *mockStore) PushWaiting(ctx context.Context, n queue.Notification, sendAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiting = append(m.waiting, scoredItem{n: n, score: sendAt})
	return nil
}

func (m *mockStore) MoveDueToReady(ctx context.Context, now int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := 0
	var remaining []scoredItem
	for _, s := range m.waiting {
		if s.score <= now {
			m.ready = append(m.ready, s.n)
			moved++
		} else {
			remaining = append(remaining, s)
		}
	}
	m.waiting = remaining
	return moved, nil
}

func (m *mockStore) PushAnnouncement(ctx context.Context, a queue.ScheduledAnnouncement, sendAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcements = append(m.announcements, scoredAnnouncement{item: a, score: sendAt})
	return nil
}

func (m *mockStore) PopDueAnnouncements(ctx context.Context, now int64, limit int) ([]queue.ScheduledAnnouncement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []queue.ScheduledAnnouncement
	var remaining []scoredAnnouncement
	for _, s := range m.announcements {
		if s.score <= now && len(due) < limit {
			due = append(due, s.item)
		} else {
			remaining = append(remaining, s)
		}
	}
	m.announcements = remaining
	return due, nil
}

func (m *mockStore) setPopErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popErr = err
}

func (m *mockStore) ReadySize(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sizeErr != nil {
		return 0, m.sizeErr
	}
	return int64(len(m.ready)), nil
}

func (m *mockStore) WaitingSize(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.waiting)), nil
}

func (m *mockStore) AnnouncementSize(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.announcements)), nil
}

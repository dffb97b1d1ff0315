package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"github.com/show5116/family-planner-back-end-sub000/internal/push"
	"github.com/show5116/family-planner-back-end-sub000/internal/queue"
)

// MockDeviceTokenRepository is an in-memory implementation of
// repository.DeviceTokenRepositoryInterface for tests.
type MockDeviceTokenRepository struct {
	tokens  map[string]*models.DeviceToken
	nextID  uint
	findErr error
}

func NewMockDeviceTokenRepository() *MockDeviceTokenRepository {
	return &MockDeviceTokenRepository{
		tokens: make(map[string]*models.DeviceToken),
		nextID: 1,
	}
}

func (m *MockDeviceTokenRepository) FindByUser(userID uint) ([]models.DeviceToken, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var result []models.DeviceToken
	for _, row := range m.tokens {
		if row.UserID == userID {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (m *MockDeviceTokenRepository) FindByToken(token string) (*models.DeviceToken, error) {
	if row, ok := m.tokens[token]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDeviceTokenRepository) Save(userID uint, token string, platform models.Platform) (*models.DeviceToken, uint, error) {
	var previousOwner uint
	if existing, ok := m.tokens[token]; ok {
		if existing.UserID != userID {
			previousOwner = existing.UserID
		}
		existing.UserID = userID
		existing.Platform = platform
		existing.LastUsed = time.Now()
		return existing, previousOwner, nil
	}
	row := &models.DeviceToken{
		ID:       m.nextID,
		UserID:   userID,
		Token:    token,
		Platform: platform,
		LastUsed: time.Now(),
	}
	m.nextID++
	m.tokens[token] = row
	return row, 0, nil
}

func (m *MockDeviceTokenRepository) Delete(userID uint, token string) error {
	row, ok := m.tokens[token]
	if !ok || row.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *MockDeviceTokenRepository) DeleteByTokens(tokens []string) error {
	for _, token := range tokens {
		delete(m.tokens, token)
	}
	return nil
}

// MockNotificationSettingRepository is an in-memory implementation of
// repository.NotificationSettingRepositoryInterface for tests.
type MockNotificationSettingRepository struct {
	settings map[uint]map[models.NotificationCategory]*models.NotificationSetting
	nextID   uint
	findErr  error
}

func NewMockNotificationSettingRepository() *MockNotificationSettingRepository {
	return &MockNotificationSettingRepository{
		settings: make(map[uint]map[models.NotificationCategory]*models.NotificationSetting),
		nextID:   1,
	}
}

func (m *MockNotificationSettingRepository) Find(userID uint, category models.NotificationCategory) (*models.NotificationSetting, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if byCategory, ok := m.settings[userID]; ok {
		if setting, ok := byCategory[category]; ok {
			return setting, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockNotificationSettingRepository) FindByUser(userID uint) ([]models.NotificationSetting, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var result []models.NotificationSetting
	for _, setting := range m.settings[userID] {
		result = append(result, *setting)
	}
	return result, nil
}

func (m *MockNotificationSettingRepository) Upsert(setting *models.NotificationSetting) error {
	byCategory, ok := m.settings[setting.UserID]
	if !ok {
		byCategory = make(map[models.NotificationCategory]*models.NotificationSetting)
		m.settings[setting.UserID] = byCategory
	}
	if existing, ok := byCategory[setting.Category]; ok {
		existing.Enabled = setting.Enabled
		setting.ID = existing.ID
		return nil
	}
	setting.ID = m.nextID
	m.nextID++
	byCategory[setting.Category] = setting
	return nil
}

// MockNotificationHistoryRepository is an in-memory implementation of
// repository.NotificationHistoryRepositoryInterface for tests.
type MockNotificationHistoryRepository struct {
	rows      map[uint]*models.NotificationHistory
	nextID    uint
	createErr error
}

func NewMockNotificationHistoryRepository() *MockNotificationHistoryRepository {
	return &MockNotificationHistoryRepository{
		rows:   make(map[uint]*models.NotificationHistory),
		nextID: 1,
	}
}

func (m *MockNotificationHistoryRepository) Create(history *models.NotificationHistory) error {
	if m.createErr != nil {
		return m.createErr
	}
	if history.ID == 0 {
		history.ID = m.nextID
		m.nextID++
	}
	history.CreatedAt = time.Now()
	m.rows[history.ID] = history
	return nil
}

func (m *MockNotificationHistoryRepository) MarkSent(id uint, sentAt time.Time) error {
	row, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Sent = true
	row.SentAt = &sentAt
	return nil
}

func (m *MockNotificationHistoryRepository) FindByUser(userID uint, cursor uint, limit int) ([]models.NotificationHistory, error) {
	var result []models.NotificationHistory
	for _, row := range m.rows {
		if row.UserID != userID {
			continue
		}
		if cursor > 0 && row.ID >= cursor {
			continue
		}
		result = append(result, *row)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MockNotificationHistoryRepository) MarkRead(id uint, userID uint) error {
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	row.IsRead = true
	row.ReadAt = &now
	return nil
}

func (m *MockNotificationHistoryRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	for _, row := range m.rows {
		if row.UserID == userID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

// MockAnnouncementRepository is an in-memory implementation of
// repository.AnnouncementRepositoryInterface for tests.
type MockAnnouncementRepository struct {
	announcements map[uint]*models.Announcement
	nextID        uint
}

func NewMockAnnouncementRepository() *MockAnnouncementRepository {
	return &MockAnnouncementRepository{
		announcements: make(map[uint]*models.Announcement),
		nextID:        1,
	}
}

func (m *MockAnnouncementRepository) Create(announcement *models.Announcement) error {
	if announcement.ID == 0 {
		announcement.ID = m.nextID
		m.nextID++
	}
	announcement.CreatedAt = time.Now()
	m.announcements[announcement.ID] = announcement
	return nil
}

func (m *MockAnnouncementRepository) FindByID(id uint) (*models.Announcement, error) {
	if a, ok := m.announcements[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockAnnouncementRepository) MarkNotified(id uint) error {
	a, ok := m.announcements[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Notified = true
	return nil
}

func (m *MockAnnouncementRepository) FindUnnotifiedScheduled() ([]models.Announcement, error) {
	var result []models.Announcement
	for _, a := range m.announcements {
		if a.SendAt != nil && !a.Notified {
			result = append(result, *a)
		}
	}
	return result, nil
}

// MockTokenCache records cache traffic so tests can assert hit, miss, and
// invalidation behavior.
type MockTokenCache struct {
	entries     map[uint][]string
	invalidated []uint
	sets        int
}

func NewMockTokenCache() *MockTokenCache {
	return &MockTokenCache{entries: make(map[uint][]string)}
}

func (m *MockTokenCache) GetTokens(userID uint) ([]string, bool) {
	tokens, ok := m.entries[userID]
	return tokens, ok
}

func (m *MockTokenCache) SetTokens(userID uint, tokens []string) error {
	if tokens == nil {
		tokens = []string{}
	}
	m.entries[userID] = tokens
	m.sets++
	return nil
}

func (m *MockTokenCache) Invalidate(userID uint) error {
	delete(m.entries, userID)
	m.invalidated = append(m.invalidated, userID)
	return nil
}

func (m *MockTokenCache) wasInvalidated(userID uint) bool {
	for _, id := range m.invalidated {
		if id == userID {
			return true
		}
	}
	return false
}

type topicCall struct {
	topic  string
	tokens []string
}

// MockSender is a recording implementation of push.Sender. Multicast
// behavior is driven by multicastResult/multicastErr; topic sends fail while
// topicErr is set.
type MockSender struct {
	mu sync.Mutex

	multicastResult *push.MulticastResult
	multicastErr    error
	topicErr        error

	multicastTokens [][]string
	topicSends      []topicCall
	subscribes      []topicCall
	unsubscribes    []topicCall
}

func NewMockSender() *MockSender {
	return &MockSender{
		multicastResult: &push.MulticastResult{SuccessCount: 1},
	}
}

func (m *MockSender) SendMulticast(ctx context.Context, tokens []string, p push.Payload) (*push.MulticastResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.multicastTokens = append(m.multicastTokens, tokens)
	if m.multicastErr != nil {
		return nil, m.multicastErr
	}
	return m.multicastResult, nil
}

func (m *MockSender) SendToTopic(ctx context.Context, topic string, p push.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.topicErr != nil {
		return m.topicErr
	}
	m.topicSends = append(m.topicSends, topicCall{topic: topic})
	return nil
}

func (m *MockSender) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribes = append(m.subscribes, topicCall{topic: topic, tokens: tokens})
	return nil
}

func (m *MockSender) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribes = append(m.unsubscribes, topicCall{topic: topic, tokens: tokens})
	return nil
}

func (m *MockSender) topicSendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topicSends)
}

type scoredAnnouncement struct {
	item  queue.ScheduledAnnouncement
	score int64
}

type scoredNotification struct {
	n     queue.Notification
	score int64
}

// MockQueueStore is an in-memory implementation of queue.Store.
type MockQueueStore struct {
	mu            sync.Mutex
	ready         []queue.Notification
	waiting       []scoredNotification
	announcements []scoredAnnouncement
	pushErr       error
}

func NewMockQueueStore() *MockQueueStore {
	return &MockQueueStore{}
}

func (m *MockQueueStore) PushReady(ctx context.Context, n queue.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	m.ready = append(m.ready, n)
	return nil
}

func (m *MockQueueStore) PopReady(ctx context.Context) (*queue.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ready) == 0 {
		return nil, nil
	}
	n := m.ready[0]
	m.ready = m.ready[1:]
	return &n, nil
}

func (m *MockQueueStore) BlockingPopReady(ctx context.Context, timeout time.Duration) (*queue.Notification, error) {
	return m.PopReady(ctx)
}

func (m *MockQueueStore) PushWaiting(ctx context.Context, n queue.Notification, sendAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	m.waiting = append(m.waiting, scoredNotification{n: n, score: sendAt})
	return nil
}

func (m *MockQueueStore) MoveDueToReady(ctx context.Context, now int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := 0
	var remaining []scoredNotification
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

func (m *MockQueueStore) PushAnnouncement(ctx context.Context, a queue.ScheduledAnnouncement, sendAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	m.announcements = append(m.announcements, scoredAnnouncement{item: a, score: sendAt})
	return nil
}

func (m *MockQueueStore) PopDueAnnouncements(ctx context.Context, now int64, limit int) ([]queue.ScheduledAnnouncement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []queue.ScheduledAnnouncement
	var remaining []scoredAnnouncement
	for _, scored := range m.announcements {
		if scored.score <= now && len(due) < limit {
			due = append(due, scored.item)
		} else {
			remaining = append(remaining, scored)
		}
	}
	m.announcements = remaining
	return due, nil
}

func (m *MockQueueStore) ReadySize(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.ready)), nil
}

func (m *MockQueueStore) WaitingSize(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.waiting)), nil
}

func (m *MockQueueStore) AnnouncementSize(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.announcements)), nil
}

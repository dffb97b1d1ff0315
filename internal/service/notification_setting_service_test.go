package service

import (
	"testing"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
)

func newSettingFixture() (*NotificationSettingService, *MockNotificationSettingRepository, *MockDeviceTokenRepository, *MockSender, *BackgroundTasks) {
	settingRepo := NewMockNotificationSettingRepository()
	tokenRepo := NewMockDeviceTokenRepository()
	sender := NewMockSender()
	tasks := NewBackgroundTasks(10)
	service := NewNotificationSettingService(settingRepo, tokenRepo, sender, tasks)
	return service, settingRepo, tokenRepo, sender, tasks
}

func TestListSettingsMergesDefaults(t *testing.T) {
	service, settingRepo, _, _, tasks := newSettingFixture()
	defer tasks.Close()
	settingRepo.Upsert(&models.NotificationSetting{
		UserID:   1,
		Category: models.CategoryTaskReminder,
		Enabled:  false,
	})

	settings, err := service.List(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settings) != len(models.Categories()) {
		t.Fatalf("expected one entry per category, got %d", len(settings))
	}

	byCategory := make(map[models.NotificationCategory]bool)
	for _, s := range settings {
		byCategory[s.Category] = s.Enabled
	}
	if byCategory[models.CategoryTaskReminder] {
		t.Error("stored opt-out should override the default")
	}
	if !byCategory[models.CategoryAnnouncement] {
		t.Error("unset category should fall back to its enabled default")
	}
}

func TestUpdateSettingRejectsUnknownCategory(t *testing.T) {
	service, _, _, _, tasks := newSettingFixture()
	defer tasks.Close()

	if err := service.Update(1, "weather", true); err != ErrUnknownCategory {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestUpdateBroadcastCategorySyncsTopic(t *testing.T) {
	service, _, tokenRepo, sender, tasks := newSettingFixture()
	tokenRepo.Save(1, "fcm-token-aaaaaaaaaa", models.PlatformAndroid)

	if err := service.Update(1, models.CategoryAnnouncement, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tasks.Close()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.unsubscribes) != 1 {
		t.Fatalf("disabling announcements should unsubscribe the user's tokens, got %d calls", len(sender.unsubscribes))
	}
	if len(sender.unsubscribes[0].tokens) != 1 {
		t.Errorf("expected 1 token in the unsubscribe, got %d", len(sender.unsubscribes[0].tokens))
	}
}

func TestUpdateNonBroadcastCategorySkipsTopicSync(t *testing.T) {
	service, settingRepo, _, sender, tasks := newSettingFixture()

	if err := service.Update(1, models.CategoryTaskReminder, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tasks.Close()

	setting, err := settingRepo.Find(1, models.CategoryTaskReminder)
	if err != nil {
		t.Fatalf("setting should be stored: %v", err)
	}
	if setting.Enabled {
		t.Error("stored setting should be disabled")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.subscribes)+len(sender.unsubscribes) != 0 {
		t.Error("non-broadcast categories have no topic to sync")
	}
}

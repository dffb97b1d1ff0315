package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"gorm.io/gorm"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestToken creates a device token with default values
func (h *TestHelper) CreateTestToken(id uint, userID uint, token string) *models.DeviceToken {
	if id == 0 {
		id = 1
	}
	if userID == 0 {
		userID = 1
	}
	if token == "" {
		token = fmt.Sprintf("fcm-token-%d", id)
	}

	return &models.DeviceToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		Platform:  models.PlatformAndroid,
		LastUsed:  time.Now(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestHistory creates a history row with default values
func (h *TestHelper) CreateTestHistory(id uint, userID uint, title string) *models.NotificationHistory {
	if id == 0 {
		id = 1
	}
	if userID == 0 {
		userID = 1
	}
	if title == "" {
		title = "Test notification"
	}

	return &models.NotificationHistory{
		ID:        id,
		UserID:    userID,
		Category:  models.CategoryTaskReminder,
		Title:     title,
		Body:      "Test body",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	os.Setenv("DATABASE_URL", "")
}

// TeardownTestEnv cleans up environment variables after testing
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DATABASE_URL")
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// GetRecordNotFoundError returns the gorm not-found sentinel
func GetRecordNotFoundError() error {
	return gorm.ErrRecordNotFound
}

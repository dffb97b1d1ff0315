package validation

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
)

// FCM registration tokens are opaque but never contain whitespace and sit
// well under 4KB. Length bounds are checked separately: regexp repeat
// counts max out at 1000.
var deviceTokenRe = regexp.MustCompile(`^[\x21-\x7e]+$`)

const (
	minDeviceTokenLength = 10
	maxDeviceTokenLength = 4096
)

func ValidateDeviceToken(token string) bool {
	token = strings.TrimSpace(token)
	if len(token) < minDeviceTokenLength || len(token) > maxDeviceTokenLength {
		return false
	}
	return deviceTokenRe.MatchString(token)
}

func ValidatePlatform(platform models.Platform) bool {
	switch platform {
	case models.PlatformIOS, models.PlatformAndroid, models.PlatformWeb:
		return true
	}
	return false
}

func MaxTitleLength() int {
	maxStr := os.Getenv("MAX_TITLE_LENGTH")
	if maxStr == "" {
		return 200
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 200
	}
	return max
}

func MaxBodyLength() int {
	maxStr := os.Getenv("MAX_BODY_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}

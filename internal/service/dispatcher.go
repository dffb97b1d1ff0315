package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"github.com/show5116/family-planner-back-end-sub000/internal/push"
	"github.com/show5116/family-planner-back-end-sub000/internal/queue"
	"github.com/show5116/family-planner-back-end-sub000/internal/repository"
)

// TokenCache is the cache-aside token lookup consumed by services.
type TokenCache interface {
	GetTokens(userID uint) ([]string, bool)
	SetTokens(userID uint, tokens []string) error
	Invalidate(userID uint) error
}

// Dispatcher is the core send path: settings gate, token resolution, history
// write, multicast send, and stale-token pruning. Dispatch never returns an
// error: one bad notification must not stop a worker loop.
type Dispatcher struct {
	settingRepo repository.NotificationSettingRepositoryInterface
	tokenRepo   repository.DeviceTokenRepositoryInterface
	historyRepo repository.NotificationHistoryRepositoryInterface
	tokenCache  TokenCache
	sender      push.Sender
}

func NewDispatcher(
	settingRepo repository.NotificationSettingRepositoryInterface,
	tokenRepo repository.DeviceTokenRepositoryInterface,
	historyRepo repository.NotificationHistoryRepositoryInterface,
	tokenCache TokenCache,
	sender push.Sender,
) *Dispatcher {
	return &Dispatcher{
		settingRepo: settingRepo,
		tokenRepo:   tokenRepo,
		historyRepo: historyRepo,
		tokenCache:  tokenCache,
		sender:      sender,
	}
}

// Dispatch delivers one queued notification to all of the user's devices.
func (d *Dispatcher) Dispatch(ctx context.Context, n queue.Notification) {
	if d.sender == nil {
		log.Printf("Notification %s: push gateway not configured, dropping", n.ID)
		return
	}
	// Opt-out gate. A missing row means the category default; a lookup
	// failure is treated the same so a flaky settings read cannot silently
	// drop notifications for a user who never opted out.
	setting, err := d.settingRepo.Find(n.UserID, n.Category)
	if err == nil {
		if !setting.Enabled {
			return
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Notification %s: setting lookup failed, assuming default: %v", n.ID, err)
		if !n.Category.Info().DefaultEnabled {
			return
		}
	} else if !n.Category.Info().DefaultEnabled {
		return
	}

	tokens := d.resolveTokens(n.UserID)
	if len(tokens) == 0 {
		log.Printf("Notification %s: user %d has no device tokens, skipping", n.ID, n.UserID)
		return
	}

	// History row precedes the push attempt so even a total failure leaves
	// an audit trail. History is never used to retry.
	history := &models.NotificationHistory{
		UserID:   n.UserID,
		Category: n.Category,
		Title:    n.Title,
		Body:     n.Body,
		Data:     models.JSONMap(n.Data),
	}
	if err := d.historyRepo.Create(history); err != nil {
		log.Printf("Notification %s: history write failed: %v", n.ID, err)
		history = nil
	}

	result, err := d.sender.SendMulticast(ctx, tokens, push.Payload{
		Title:        n.Title,
		Body:         n.Body,
		Data:         n.Data,
		HighPriority: n.Category.Info().HighPriority,
	})
	if err != nil {
		log.Printf("Notification %s: multicast send failed: %v", n.ID, err)
		return
	}

	if result.SuccessCount > 0 && history != nil {
		if err := d.historyRepo.MarkSent(history.ID, time.Now()); err != nil {
			log.Printf("Notification %s: mark sent failed: %v", n.ID, err)
		}
	}

	// Stale tokens self-heal: prune what the gateway rejected and drop the
	// cache entry so the next send refetches.
	if len(result.InvalidTokens) > 0 {
		if err := d.tokenRepo.DeleteByTokens(result.InvalidTokens); err != nil {
			log.Printf("Notification %s: pruning %d invalid tokens failed: %v", n.ID, len(result.InvalidTokens), err)
		}
		if d.tokenCache != nil {
			_ = d.tokenCache.Invalidate(n.UserID)
		}
		log.Printf("Notification %s: pruned %d invalid tokens for user %d", n.ID, len(result.InvalidTokens), n.UserID)
	}
}

// resolveTokens is the cache-aside read: cache hit wins (including the
// known-empty entry), miss falls back to the system-of-record and
// repopulates the cache.
func (d *Dispatcher) resolveTokens(userID uint) []string {
	if d.tokenCache != nil {
		if tokens, ok := d.tokenCache.GetTokens(userID); ok {
			return tokens
		}
	}

	rows, err := d.tokenRepo.FindByUser(userID)
	if err != nil {
		log.Printf("Token lookup failed for user %d: %v", userID, err)
		return nil
	}
	tokens := make([]string, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, row.Token)
	}
	if d.tokenCache != nil {
		_ = d.tokenCache.SetTokens(userID, tokens)
	}
	return tokens
}

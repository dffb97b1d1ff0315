package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/show5116/family-planner-back-end-sub000/internal/httpx"
	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"github.com/show5116/family-planner-back-end-sub000/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	settingService      *service.NotificationSettingService
}

func NewNotificationHandler(notificationService *service.NotificationService, settingService *service.NotificationSettingService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		settingService:      settingService,
	}
}

func (h *NotificationHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	cursor, _ := strconv.ParseUint(c.Query("cursor", "0"), 10, 32)
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	history, err := h.notificationService.ListHistory(userID, uint(cursor), limit)
	if err != nil {
		return httpx.Internal(c, "history_fetch_failed")
	}
	return c.JSON(history)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid notification ID")
	}

	userID := c.Locals("userID").(uint)
	if err := h.notificationService.MarkRead(uint(id), userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Error(c, fiber.StatusNotFound, "not_found", "Notification not found")
		}
		return httpx.Internal(c, "mark_read_failed")
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		return httpx.Internal(c, "unread_count_failed")
	}
	return c.JSON(fiber.Map{"unread": count})
}

func (h *NotificationHandler) GetSettings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	settings, err := h.settingService.List(userID)
	if err != nil {
		return httpx.Internal(c, "settings_fetch_failed")
	}
	return c.JSON(settings)
}

type UpdateSettingRequest struct {
	Category models.NotificationCategory `json:"category"`
	Enabled  *bool                       `json:"enabled"`
}

func (h *NotificationHandler) UpdateSetting(c *fiber.Ctx) error {
	var req UpdateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}
	if req.Enabled == nil {
		return httpx.BadRequest(c, "missing_enabled", "Field 'enabled' is required")
	}

	userID := c.Locals("userID").(uint)
	if err := h.settingService.Update(userID, req.Category, *req.Enabled); err != nil {
		if errors.Is(err, service.ErrUnknownCategory) {
			return httpx.BadRequest(c, "invalid_category", "Unknown notification category")
		}
		return httpx.Internal(c, "setting_update_failed")
	}
	return c.JSON(fiber.Map{"message": "Setting updated"})
}

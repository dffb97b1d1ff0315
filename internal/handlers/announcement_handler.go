package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/show5116/family-planner-back-end-sub000/internal/httpx"
	"github.com/show5116/family-planner-back-end-sub000/internal/service"
	"github.com/show5116/family-planner-back-end-sub000/internal/validation"
)

type AnnouncementHandler struct {
	announcementService *service.AnnouncementService
}

func NewAnnouncementHandler(announcementService *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

type CreateAnnouncementRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	SendAt string `json:"send_at"` // RFC3339, optional
}

func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	var req CreateAnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	req.Title = validation.TrimAndLimit(req.Title, validation.MaxTitleLength())
	req.Body = validation.TrimAndLimit(req.Body, validation.MaxBodyLength())
	if req.Title == "" {
		return httpx.BadRequest(c, "missing_title", "Title is required")
	}

	var sendAt *time.Time
	if req.SendAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.SendAt)
		if err != nil {
			return httpx.BadRequest(c, "invalid_send_at", "send_at must be RFC3339")
		}
		sendAt = &parsed
	}

	userID := c.Locals("userID").(uint)
	announcement, err := h.announcementService.Create(c.Context(), userID, req.Title, req.Body, sendAt)
	if err != nil {
		return httpx.Internal(c, "announcement_create_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(announcement.ToResponse())
}

func (h *AnnouncementHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid announcement ID")
	}

	announcement, err := h.announcementService.Get(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Error(c, fiber.StatusNotFound, "not_found", "Announcement not found")
		}
		return httpx.Internal(c, "announcement_fetch_failed")
	}
	return c.JSON(announcement.ToResponse())
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/show5116/family-planner-back-end-sub000/internal/httpx"
	"github.com/show5116/family-planner-back-end-sub000/internal/models"
	"github.com/show5116/family-planner-back-end-sub000/internal/service"
	"github.com/show5116/family-planner-back-end-sub000/internal/validation"
)

type DeviceTokenHandler struct {
	tokenService *service.DeviceTokenService
}

func NewDeviceTokenHandler(tokenService *service.DeviceTokenService) *DeviceTokenHandler {
	return &DeviceTokenHandler{tokenService: tokenService}
}

type RegisterTokenRequest struct {
	Token    string          `json:"token"`
	Platform models.Platform `json:"platform"`
}

func (h *DeviceTokenHandler) Register(c *fiber.Ctx) error {
	var req RegisterTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}
	if !validation.ValidateDeviceToken(req.Token) {
		return httpx.BadRequest(c, "invalid_token", "Invalid device token")
	}
	if !validation.ValidatePlatform(req.Platform) {
		return httpx.BadRequest(c, "invalid_platform", "Platform must be ios, android or web")
	}

	userID := c.Locals("userID").(uint)
	token, err := h.tokenService.Register(userID, req.Token, req.Platform)
	if err != nil {
		return httpx.Internal(c, "token_register_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(token.ToResponse())
}

type RemoveTokenRequest struct {
	Token string `json:"token"`
}

func (h *DeviceTokenHandler) Remove(c *fiber.Ctx) error {
	var req RemoveTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}
	if req.Token == "" {
		return httpx.BadRequest(c, "invalid_token", "Token is required")
	}

	userID := c.Locals("userID").(uint)
	if err := h.tokenService.Remove(userID, req.Token); err != nil {
		return httpx.Internal(c, "token_remove_failed")
	}

	return c.JSON(fiber.Map{"message": "Device token removed"})
}

func (h *DeviceTokenHandler) List(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	tokens, err := h.tokenService.List(userID)
	if err != nil {
		return httpx.Internal(c, "token_list_failed")
	}

	out := make([]models.DeviceTokenResponse, 0, len(tokens))
	for i := range tokens {
		out = append(out, tokens[i].ToResponse())
	}
	return c.JSON(out)
}

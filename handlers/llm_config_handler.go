package handlers

import (
	"context"

	"reasoning_backend/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type LLMConfigStore interface {
	GetUserLLMConfig(ctx context.Context, userID string) (*services.LLMConfig, error)
	SetUserLLMConfig(ctx context.Context, userID string, config *services.LLMConfig) error
	DeleteUserLLMConfig(ctx context.Context, userID string) error
}

type LLMConfigHandler struct {
	store    LLMConfigStore
	validate *validator.Validate
}

func NewLLMConfigHandler(store LLMConfigStore) *LLMConfigHandler {
	return &LLMConfigHandler{store: store, validate: validator.New()}
}

type llmConfigReq struct {
	Provider string `json:"provider" validate:"required,oneof=openai gemini"`
	Model    string `json:"model" validate:"required"`
	APIKey   string `json:"api_key" validate:"required,min=8"`
}

// Get never returns the stored key in clear.
func (h *LLMConfigHandler) Get(c *fiber.Ctx) error {
	cfg, err := h.store.GetUserLLMConfig(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return serviceError(c, err)
	}
	if cfg == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "LLM config not found"})
	}
	return c.JSON(fiber.Map{
		"user_id":  cfg.UserID,
		"provider": cfg.Provider,
		"model":    cfg.Model,
		"api_key":  services.MaskAPIKey(cfg.APIKey),
	})
}

func (h *LLMConfigHandler) Put(c *fiber.Ctx) error {
	var req llmConfigReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	cfg := &services.LLMConfig{Provider: req.Provider, Model: req.Model, APIKey: req.APIKey}
	if err := h.store.SetUserLLMConfig(c.UserContext(), c.Params("user_id"), cfg); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"user_id":  cfg.UserID,
		"provider": cfg.Provider,
		"model":    cfg.Model,
		"api_key":  services.MaskAPIKey(cfg.APIKey),
	})
}

func (h *LLMConfigHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteUserLLMConfig(c.UserContext(), c.Params("user_id")); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"context"
	"errors"

	"reasoning_backend/models"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/repository"
	"reasoning_backend/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReasoningService is the part of services.ReasoningService the HTTP layer uses.
type ReasoningService interface {
	Solve(ctx context.Context, req models.SolveReq) (*models.SolveRes, error)
	Enqueue(ctx context.Context, req models.SolveReq) (*models.EnqueueRes, error)
	GetRun(ctx context.Context, runID string) (*models.RunRes, error)
	ListRuns(ctx context.Context, userID string, limit int) ([]*models.ReasoningRun, error)
}

type ReasoningHandler struct {
	reasoningService ReasoningService
	validate         *validator.Validate
}

func NewReasoningHandler(reasoningService ReasoningService) *ReasoningHandler {
	return &ReasoningHandler{reasoningService: reasoningService, validate: validator.New()}
}

func (h *ReasoningHandler) Solve(c *fiber.Ctx) error {
	req, err := h.parseSolveReq(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	res, err := h.reasoningService.Solve(c.UserContext(), *req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(res)
}

// Enqueue answers 202 with the run id; progress arrives over the websocket.
func (h *ReasoningHandler) Enqueue(c *fiber.Ctx) error {
	req, err := h.parseSolveReq(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	res, err := h.reasoningService.Enqueue(c.UserContext(), *req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

func (h *ReasoningHandler) GetRun(c *fiber.Ctx) error {
	res, err := h.reasoningService.GetRun(c.UserContext(), c.Params("run_id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(res)
}

func (h *ReasoningHandler) ListRuns(c *fiber.Ctx) error {
	runs, err := h.reasoningService.ListRuns(c.UserContext(), c.Params("user_id"), c.QueryInt("limit", 20))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"runs": runs})
}

func (h *ReasoningHandler) parseSolveReq(c *fiber.Ctx) (*models.SolveReq, error) {
	var req models.SolveReq
	if err := c.BodyParser(&req); err != nil {
		return nil, errors.New("invalid request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrRunNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrEmptyQuestion),
		errors.Is(err, services.ErrEmptyUserID),
		errors.Is(err, services.ErrQueueKeyWithoutUser):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		logging.Logger.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

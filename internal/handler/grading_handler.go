package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/service"
	"github.com/escrivo/escrivo-go-api/internal/utils"
)

// GradingHandler wires the grading state machine endpoints.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Patch("/:id/grade", h.grade)
	router.Post("/:id/finalize", h.finalize)
	router.Post("/:id/reopen", h.reopen)
	router.Post("/:id/delivered", h.delivered)
	router.Post("/:id/delivery-failed", h.deliveryFailed)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.GradeEssayRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	essay, err := h.service.Grade(c.Context(), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to grade submission")
	}

	return utils.SendSuccess(c, "submission graded", dto.NewEssayResponse(essay))
}

func (h *GradingHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	essay, err := h.service.Finalize(c.Context(), id, graderIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to finalize grading")
	}

	return utils.SendSuccess(c, "grading finalized", dto.NewEssayResponse(essay))
}

func (h *GradingHandler) reopen(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	essay, err := h.service.Reopen(c.Context(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to reopen grading")
	}

	return utils.SendSuccess(c, "grading reopened", dto.NewEssayResponse(essay))
}

func (h *GradingHandler) delivered(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	essay, err := h.service.MarkDelivered(c.Context(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to confirm delivery")
	}

	return utils.SendSuccess(c, "delivery confirmed", dto.NewEssayResponse(essay))
}

func (h *GradingHandler) deliveryFailed(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.DeliveryFailureRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if payload.Reason == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "reason is required")
	}

	essay, err := h.service.MarkDeliveryFailed(c.Context(), id, payload.Reason)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to record delivery failure")
	}

	return utils.SendSuccess(c, "delivery failure recorded", dto.NewEssayResponse(essay))
}

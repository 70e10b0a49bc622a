package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/service"
	"github.com/escrivo/escrivo-go-api/internal/utils"
)

// EssayHandler wires submission intake and read endpoints.
type EssayHandler struct {
	service service.EssayService
	logger  zerolog.Logger
}

// NewEssayHandler constructs the handler.
func NewEssayHandler(service service.EssayService, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		service: service,
		logger:  logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *EssayHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/history", h.history)
}

func (h *EssayHandler) create(c *fiber.Ctx) error {
	var payload dto.EssayCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	essay, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to register submission")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission registered", dto.NewEssayResponse(essay))
}

func (h *EssayHandler) list(c *fiber.Ctx) error {
	var filter dto.EssayFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	essays, err := h.service.List(c.Context(), filter)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list submissions")
	}

	return utils.SendSuccess(c, "submissions listed", dto.NewEssayResponseSlice(essays))
}

func (h *EssayHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	essay, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load submission")
	}

	return utils.SendSuccess(c, "submission loaded", dto.NewEssayResponse(essay))
}

func (h *EssayHandler) history(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	events, err := h.service.History(c.Context(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load grading history")
	}

	return utils.SendSuccess(c, "grading history loaded", dto.NewGradeEventResponseSlice(events))
}

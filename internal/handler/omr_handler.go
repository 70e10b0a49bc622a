package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/service"
	"github.com/escrivo/escrivo-go-api/internal/utils"
)

// OmrHandler wires the optical-mark analysis trigger.
type OmrHandler struct {
	service service.OmrService
	logger  zerolog.Logger
}

// NewOmrHandler constructs the handler.
func NewOmrHandler(service service.OmrService, logger zerolog.Logger) *OmrHandler {
	return &OmrHandler{
		service: service,
		logger:  logger.With().Str("component", "omr_handler").Logger(),
	}
}

// Register attaches the analysis endpoint to the router group.
func (h *OmrHandler) Register(router fiber.Router) {
	router.Post("/:id/analyze", h.analyze)
}

func (h *OmrHandler) analyze(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	essay, err := h.service.Analyze(c.Context(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "optical-mark analysis failed")
	}

	return utils.SendSuccess(c, "answer sheet graded", dto.NewEssayResponse(essay))
}

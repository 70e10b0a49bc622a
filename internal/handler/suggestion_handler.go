package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/escrivo/escrivo-go-api/internal/service"
	"github.com/escrivo/escrivo-go-api/internal/utils"
)

// SuggestionHandler exposes AI-drafted feedback for graders.
type SuggestionHandler struct {
	service service.SuggestionService
	logger  zerolog.Logger
}

// NewSuggestionHandler constructs the handler.
func NewSuggestionHandler(service service.SuggestionService, logger zerolog.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		service: service,
		logger:  logger.With().Str("component", "suggestion_handler").Logger(),
	}
}

// Register attaches the suggestion endpoint to the router group.
func (h *SuggestionHandler) Register(router fiber.Router) {
	router.Get("/:id/suggestion", h.draft)
}

func (h *SuggestionHandler) draft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	suggestion, err := h.service.Draft(c.Context(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to draft feedback")
	}

	return utils.SendSuccess(c, "feedback drafted", suggestion)
}

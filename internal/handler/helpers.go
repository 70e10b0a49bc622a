package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/escrivo/escrivo-go-api/internal/scoring"
	"github.com/escrivo/escrivo-go-api/internal/service"
	"github.com/escrivo/escrivo-go-api/internal/utils"
	"github.com/escrivo/escrivo-go-api/pkg/omr"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	raw := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func graderIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// sendServiceError maps service sentinels onto HTTP statuses. Unknown errors
// are logged and hidden behind a generic message.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrEssayNotFound),
		errors.Is(err, service.ErrAnswerKeyNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrOmrAlreadyRunning):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrIncompleteGrading),
		errors.Is(err, service.ErrRubricMismatch),
		errors.Is(err, service.ErrInvalidAnnotation),
		errors.Is(err, service.ErrAnnotationLimit),
		errors.Is(err, scoring.ErrInvalidRubric):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrUnsupportedMedia):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrSuggestionUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, omr.ErrProcess), errors.Is(err, omr.ErrParse):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Str("correlation_id", correlationID(c)).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

func correlationID(c *fiber.Ctx) string {
	if v := c.Locals("correlation_id"); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

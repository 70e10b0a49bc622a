package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/service"
	"github.com/escrivo/escrivo-go-api/internal/utils"
)

// AnnotationHandler wires the spatial-annotation endpoints.
type AnnotationHandler struct {
	service service.AnnotationService
	logger  zerolog.Logger
}

// NewAnnotationHandler constructs the handler.
func NewAnnotationHandler(service service.AnnotationService, logger zerolog.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		service: service,
		logger:  logger.With().Str("component", "annotation_handler").Logger(),
	}
}

// Register attaches annotation endpoints to the router group.
func (h *AnnotationHandler) Register(router fiber.Router) {
	router.Post("/:id/annotations", h.add)
	router.Put("/:id/annotations", h.replace)
}

func (h *AnnotationHandler) add(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AnnotationDraft
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	annotation, err := h.service.Add(c.Context(), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to add annotation")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "annotation added", dto.NewAnnotationResponse(annotation))
}

type replaceAnnotationsData struct {
	Annotations []dto.AnnotationResponse `json:"annotations"`
	Dropped     int                      `json:"dropped"`
}

func (h *AnnotationHandler) replace(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ReplaceAnnotationsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	outcome, err := h.service.Replace(c.Context(), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to replace annotations")
	}

	return utils.SendSuccess(c, "annotations replaced", replaceAnnotationsData{
		Annotations: dto.NewAnnotationResponseSlice(outcome.Annotations),
		Dropped:     outcome.Dropped,
	})
}

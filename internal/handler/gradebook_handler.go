package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/praxisedu/assessment-api/internal/dto"
	"github.com/praxisedu/assessment-api/internal/service"
	"github.com/praxisedu/assessment-api/internal/utils"
)

// GradebookHandler manages gradebook and topic-mark endpoints.
type GradebookHandler struct {
	service   service.GradebookService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradebookHandler builds a gradebook handler instance.
func NewGradebookHandler(service service.GradebookService, validator *validator.Validate, logger zerolog.Logger) *GradebookHandler {
	return &GradebookHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "gradebook_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GradebookHandler) Register(router fiber.Router) {
	router.Get("/:courseClassId", h.get)
	router.Post("/:courseClassId/recalculate", h.recalculate)
	router.Patch("/:courseClassId/comment", h.updateComment)
}

func (h *GradebookHandler) get(c *fiber.Ctx) error {
	courseClassID, err := parseUintParam(c, "courseClassId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	gradebook, err := h.service.GetGradebook(c.Context(), courseClassID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "gradebook retrieved", gradebook)
}

func (h *GradebookHandler) recalculate(c *fiber.Ctx) error {
	courseClassID, err := parseUintParam(c, "courseClassId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RecalculateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.Recalculate(c.Context(), courseClassID, payload.UserID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "topic mark recalculated", nil)
}

func (h *GradebookHandler) updateComment(c *fiber.Ctx) error {
	courseClassID, err := parseUintParam(c, "courseClassId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TopicMarkCommentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.UpdateComment(c.Context(), courseClassID, payload.UserID, payload.Comment); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "comment updated", nil)
}

func (h *GradebookHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course class not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/internal/utils"
)

// ClassHandler exposes class sections.
type ClassHandler struct {
	service service.ClassService
	logger  zerolog.Logger
}

// NewClassHandler constructs a class handler.
func NewClassHandler(service service.ClassService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register binds class routes. guard protects every mutating route.
func (h *ClassHandler) Register(router fiber.Router, guard fiber.Handler) {
	guard = orPassthrough(guard)

	router.Get("/", h.list)
	router.Post("/", guard, h.create)
	router.Delete("/:id", guard, h.delete)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	classes, err := h.service.List(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list classes")
	}
	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var req dto.ClassCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	class, err := h.service.Create(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create class")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *ClassHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to delete class")
	}
	return utils.SendSuccess(c, "class deleted", nil)
}

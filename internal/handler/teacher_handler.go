package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/internal/utils"
)

// TeacherHandler exposes teacher registration.
type TeacherHandler struct {
	roster  service.RosterService
	avatars service.AvatarService
	logger  zerolog.Logger
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(roster service.RosterService, avatars service.AvatarService, logger zerolog.Logger) *TeacherHandler {
	return &TeacherHandler{
		roster:  roster,
		avatars: avatars,
		logger:  logger.With().Str("component", "teacher_handler").Logger(),
	}
}

// Register binds teacher routes. guard protects every mutating route.
func (h *TeacherHandler) Register(router fiber.Router, guard fiber.Handler) {
	guard = orPassthrough(guard)

	router.Get("/", h.list)
	router.Post("/", guard, h.create)
	router.Get("/:id", h.get)
	router.Delete("/:id", guard, h.delete)
	router.Post("/:id/avatar", guard, h.avatar)
}

func (h *TeacherHandler) list(c *fiber.Ctx) error {
	teachers, err := h.roster.ListTeachers(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list teachers")
	}
	return utils.SendSuccess(c, "teachers retrieved", teachers)
}

func (h *TeacherHandler) create(c *fiber.Ctx) error {
	var req dto.TeacherCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	teacher, err := h.roster.CreateTeacher(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create teacher")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "teacher created", teacher)
}

func (h *TeacherHandler) get(c *fiber.Ctx) error {
	teacher, err := h.roster.GetTeacher(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load teacher")
	}
	return utils.SendSuccess(c, "teacher retrieved", teacher)
}

func (h *TeacherHandler) delete(c *fiber.Ctx) error {
	if err := h.roster.DeleteTeacher(requestContext(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to delete teacher")
	}
	return utils.SendSuccess(c, "teacher deleted", nil)
}

func (h *TeacherHandler) avatar(c *fiber.Ctx) error {
	return uploadAvatar(c, h.avatars, h.logger, attendance.ClassificationTeacher)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/internal/utils"
)

// StudentHandler exposes student registration, import and profile helpers.
type StudentHandler struct {
	roster      service.RosterService
	avatars     service.AvatarService
	suggestions service.SuggestionService
	logger      zerolog.Logger
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(roster service.RosterService, avatars service.AvatarService, suggestions service.SuggestionService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		roster:      roster,
		avatars:     avatars,
		suggestions: suggestions,
		logger:      logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register binds student routes. guard protects every mutating route.
func (h *StudentHandler) Register(router fiber.Router, guard fiber.Handler) {
	guard = orPassthrough(guard)

	router.Get("/", h.list)
	router.Post("/", guard, h.create)
	router.Post("/bulk", guard, h.bulk)
	router.Post("/suggestions", guard, h.suggest)
	router.Post("/extract", guard, h.extract)
	router.Get("/:id", h.get)
	router.Delete("/:id", guard, h.delete)
	router.Post("/:id/avatar", guard, h.avatar)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	students, err := h.roster.ListStudents(requestContext(c), c.Query("class_id"), c.Query("search"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list students")
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var req dto.StudentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.roster.CreateStudent(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	student, err := h.roster.GetStudent(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load student")
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	if err := h.roster.DeleteStudent(requestContext(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to delete student")
	}
	return utils.SendSuccess(c, "student deleted", nil)
}

func (h *StudentHandler) bulk(c *fiber.Ctx) error {
	var req dto.BulkImportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.roster.BulkImportStudents(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "bulk import failed")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "students imported", result)
}

func (h *StudentHandler) suggest(c *fiber.Ctx) error {
	req := dto.SuggestionRequest{Count: 5}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	suggestions, err := h.suggestions.Suggest(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to generate suggestions")
	}
	return utils.SendSuccess(c, "suggestions generated", suggestions)
}

func (h *StudentHandler) extract(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "image is required")
	}

	req, err := h.suggestions.ExtractFromCard(requestContext(c), file)
	if err != nil {
		return respondError(c, h.logger, err, "failed to read id card")
	}
	return utils.SendSuccess(c, "student details extracted", req)
}

func (h *StudentHandler) avatar(c *fiber.Ctx) error {
	return uploadAvatar(c, h.avatars, h.logger, attendance.ClassificationStudent)
}

func uploadAvatar(c *fiber.Ctx, avatars service.AvatarService, logger zerolog.Logger, classification attendance.Classification) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := avatars.Upload(requestContext(c), classification, c.Params("id"), file)
	if err != nil {
		return respondError(c, logger, err, "avatar upload failed")
	}
	return utils.SendSuccess(c, "avatar updated", result)
}

func orPassthrough(guard fiber.Handler) fiber.Handler {
	if guard == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return guard
}

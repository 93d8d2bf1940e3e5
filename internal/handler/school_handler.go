package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/internal/utils"
)

// SchoolHandler exposes the school profile and attendance start time.
type SchoolHandler struct {
	service service.SchoolService
	logger  zerolog.Logger
}

// NewSchoolHandler constructs a school handler.
func NewSchoolHandler(service service.SchoolService, logger zerolog.Logger) *SchoolHandler {
	return &SchoolHandler{
		service: service,
		logger:  logger.With().Str("component", "school_handler").Logger(),
	}
}

// Register binds school routes. guard protects the update route.
func (h *SchoolHandler) Register(router fiber.Router, guard fiber.Handler) {
	router.Get("/", h.get)
	router.Put("/", orPassthrough(guard), h.update)
}

func (h *SchoolHandler) get(c *fiber.Ctx) error {
	profile, err := h.service.Get(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load school profile")
	}
	return utils.SendSuccess(c, "school profile", profile)
}

func (h *SchoolHandler) update(c *fiber.Ctx) error {
	var req dto.SchoolUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.Update(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update school profile")
	}

	requestLogger(h.logger, c).Info().Str("start_time", profile.StartTime).Msg("school settings saved")
	return utils.SendSuccess(c, "school profile updated", profile)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/internal/utils"
)

// SeedHandler exposes tooling endpoints for seeding demo data.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/demo", h.demo)
}

func (h *SeedHandler) demo(c *fiber.Ctx) error {
	result, err := h.service.SeedDemo(requestContext(c), c.Get("X-Seed-Token"))
	if err != nil {
		return respondError(c, h.logger, err, "seed operation failed")
	}
	return utils.SendSuccess(c, "demo data seeded", result)
}

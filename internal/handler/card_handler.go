package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/internal/utils"
)

// CardHandler serves identity card payloads and their QR codes.
type CardHandler struct {
	service service.CardService
	logger  zerolog.Logger
}

// NewCardHandler constructs a card handler.
func NewCardHandler(service service.CardService, logger zerolog.Logger) *CardHandler {
	return &CardHandler{
		service: service,
		logger:  logger.With().Str("component", "card_handler").Logger(),
	}
}

// Register binds card routes.
func (h *CardHandler) Register(router fiber.Router) {
	router.Get("/:id", h.card)
	router.Get("/:id/qr.png", h.qr)
}

func (h *CardHandler) card(c *fiber.Ctx) error {
	card, err := h.service.Card(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to build card")
	}
	return utils.SendSuccess(c, "card", card)
}

func (h *CardHandler) qr(c *fiber.Ctx) error {
	size, err := parseQueryInt(c, "size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid size")
	}

	png, err := h.service.QR(requestContext(c), c.Params("id"), size)
	if err != nil {
		return respondError(c, h.logger, err, "failed to render qr code")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Status(fiber.StatusOK).Send(png)
}

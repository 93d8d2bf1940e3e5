package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/internal/utils"
)

const livePingInterval = 30 * time.Second

// AttendanceHandler exposes scanning, reports and the live scan feed.
type AttendanceHandler struct {
	service     service.AttendanceService
	logger      zerolog.Logger
	scanLimiter fiber.Handler
}

// NewAttendanceHandler constructs the attendance handler. scanLimiter may be nil.
func NewAttendanceHandler(service service.AttendanceService, scanLimiter fiber.Handler, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service:     service,
		scanLimiter: scanLimiter,
		logger:      logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register binds the attendance routes.
func (h *AttendanceHandler) Register(router fiber.Router) {
	if h.scanLimiter != nil {
		router.Post("/scan", h.scanLimiter, h.scan)
	} else {
		router.Post("/scan", h.scan)
	}
	router.Get("/overview", h.overview)
	router.Get("/partition", h.partition)
	router.Get("/history", h.history)

	router.Use("/live", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/live", websocket.New(h.live))
}

func (h *AttendanceHandler) scan(c *fiber.Ctx) error {
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Scan(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record scan")
	}

	return utils.SendSuccess(c, result.Message, result)
}

func (h *AttendanceHandler) overview(c *fiber.Ctx) error {
	overview, err := h.service.Overview(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load overview")
	}
	return utils.SendSuccess(c, "attendance overview", overview)
}

func (h *AttendanceHandler) partition(c *fiber.Ctx) error {
	partition, err := h.service.Partition(requestContext(c), c.Query("date"), c.Query("type"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load attendance")
	}
	return utils.SendSuccess(c, "attendance partition", partition)
}

func (h *AttendanceHandler) history(c *fiber.Ctx) error {
	days, err := parseQueryInt(c, "days")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid days")
	}

	history, err := h.service.History(requestContext(c), c.Query("end"), days, c.Query("type"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load attendance history")
	}
	return utils.SendSuccess(c, "attendance history", history)
}

func (h *AttendanceHandler) live(conn *websocket.Conn) {
	feed, cleanup := h.service.Subscribe()
	defer cleanup()
	defer func() { _ = conn.Close() }()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	h.logger.Debug().Msg("live feed client connected")
	for {
		select {
		case event, ok := <-feed:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("failed to write live scan event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-closed:
			h.logger.Debug().Msg("live feed client disconnected")
			return
		}
	}
}

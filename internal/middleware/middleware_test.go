package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestCorrelationIDPropagates(t *testing.T) {
	app := fiber.New()
	logger := zerolog.Nop()
	Register(app, Config{Logger: &logger})
	app.Get("/api/v1/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"locals":  GetCorrelationID(c),
			"context": CorrelationIDFromContext(c.UserContext()),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-Request-ID", "scan-desk-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "scan-desk-1", resp.Header.Get("X-Correlation-ID"))

	var body map[string]string
	decodeJSON(t, resp, &body)
	require.Equal(t, "scan-desk-1", body["locals"])
	require.Equal(t, "scan-desk-1", body["context"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDReplacesUnusableInput(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString(GetCorrelationID(c)) })

	for _, incoming := range []string{strings.Repeat("x", 200), "desk 1"} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderCorrelationID, incoming)
		resp, err := app.Test(req)
		require.NoError(t, err)

		id := resp.Header.Get(HeaderCorrelationID)
		require.NotEqual(t, incoming, id)
		_, parseErr := uuid.Parse(id)
		require.NoError(t, parseErr)
	}
}

func TestRecoverReturnsServerError(t *testing.T) {
	app := fiber.New()
	Register(app, Config{})
	app.Get("/api/v1/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestRateLimitPerOperator(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalOperatorID, c.Get("X-Operator"))
		return c.Next()
	})
	app.Post("/scan", RateLimit("scan", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	send := func(operator string) int {
		req := httptest.NewRequest(http.MethodPost, "/scan", nil)
		req.Header.Set("X-Operator", operator)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusOK, send("desk-a"))
	require.Equal(t, fiber.StatusOK, send("desk-a"))
	require.Equal(t, fiber.StatusTooManyRequests, send("desk-a"))
	require.Equal(t, fiber.StatusOK, send("desk-b"))
}

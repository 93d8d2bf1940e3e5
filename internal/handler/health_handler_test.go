package handler_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/vibecheck-api/internal/config"
	"github.com/noah-isme/vibecheck-api/internal/handler"
)

type healthEnvelope struct {
	Success bool                   `json:"success"`
	Data    handler.HealthResponse `json:"data"`
}

func TestHealthCheck(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	cfg := config.Config{
		AppName:  "VibeCheck API",
		AppEnv:   "test",
		Location: jakarta,
	}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload healthEnvelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.Equal(t, "Asia/Jakarta", payload.Data.Timezone)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 5*time.Second)
}

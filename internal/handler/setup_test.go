package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/config"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/handler"
	"github.com/noah-isme/vibecheck-api/internal/middleware"
	"github.com/noah-isme/vibecheck-api/internal/models"
	"github.com/noah-isme/vibecheck-api/internal/repository"
	"github.com/noah-isme/vibecheck-api/internal/router"
	"github.com/noah-isme/vibecheck-api/internal/service"
)

const seedToken = "seed-secret"

type testEnv struct {
	app      *fiber.App
	registry *attendance.MemoryRegistry
	ledger   *attendance.Ledger
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Teacher{},
		&models.ClassSection{},
		&models.AttendanceRecord{},
		&models.SchoolProfile{},
	))

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := zerolog.Nop()
	validate := dto.NewValidator()

	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	classes := repository.NewClassRepository(db)
	school := repository.NewSchoolRepository(db)
	records := repository.NewAttendanceRepository(db)

	registry := attendance.NewMemoryRegistry()
	holder := attendance.NewConfigHolder()
	ledger := attendance.NewLedger(registry, holder, attendance.WithSink(repository.NewAttendanceSink(records)))

	attendanceService := service.NewAttendanceService(service.AttendanceDependencies{
		Ledger:      ledger,
		Registry:    registry,
		Config:      holder,
		Students:    students,
		Teachers:    teachers,
		Classes:     classes,
		Redis:       redisClient,
		ChannelBase: "vibecheck-test",
		CacheTTL:    time.Minute,
		MaxDays:     31,
	}, validate, logger)
	rosterService := service.NewRosterService(students, teachers, classes, registry, redisClient, validate, logger)
	avatarService := service.NewAvatarService(nil, students, teachers, 1, logger)
	suggestionService := service.NewSuggestionService(nil, classes, 1, validate, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{})
	router.Register(app, config.Config{AppName: "VibeCheck Test", AppEnv: "test"}, router.Dependencies{
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, middleware.RateLimit("scan", 100, time.Minute), logger),
		StudentHandler:    handler.NewStudentHandler(rosterService, avatarService, suggestionService, logger),
		TeacherHandler:    handler.NewTeacherHandler(rosterService, avatarService, logger),
		ClassHandler:      handler.NewClassHandler(service.NewClassService(classes, validate, logger), logger),
		SchoolHandler:     handler.NewSchoolHandler(service.NewSchoolService(school, holder, "08:00", validate, logger), logger),
		CardHandler:       handler.NewCardHandler(service.NewCardService(students, teachers, registry, holder, logger), logger),
		SeedHandler:       handler.NewSeedHandler(service.NewSeedService(school, classes, holder, true, seedToken, logger), logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals(middleware.LocalOperatorID, "front-desk")
			if role := c.Get("X-Test-Role"); role != "" {
				c.Locals(middleware.LocalOperatorRole, role)
			}
			return c.Next()
		},
	})

	return &testEnv{app: app, registry: registry, ledger: ledger}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp, decodeEnvelope(t, resp)
}

var asTeacher = map[string]string{"X-Test-Role": "teacher"}

func (e *testEnv) createStudent(t *testing.T, name, roll string) dto.StudentResponse {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/students", dto.StudentCreateRequest{
		Name:       name,
		RollNumber: roll,
		Grade:      "10",
	}, asTeacher)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)

	var student dto.StudentResponse
	require.NoError(t, json.Unmarshal(body.Data, &student))
	return student
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return body
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

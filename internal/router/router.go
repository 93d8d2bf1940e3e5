package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/vibecheck-api/internal/config"
	"github.com/noah-isme/vibecheck-api/internal/handler"
	"github.com/noah-isme/vibecheck-api/internal/middleware"
	"github.com/noah-isme/vibecheck-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AttendanceHandler *handler.AttendanceHandler
	StudentHandler    *handler.StudentHandler
	TeacherHandler    *handler.TeacherHandler
	ClassHandler      *handler.ClassHandler
	SchoolHandler     *handler.SchoolHandler
	CardHandler       *handler.CardHandler
	SeedHandler       *handler.SeedHandler
	JWTMiddleware     fiber.Handler
	// RosterGuard protects roster, class and school mutations. Defaults to admin or teacher.
	RosterGuard fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	guard := deps.RosterGuard
	if guard == nil {
		guard = middleware.RequireRole(middleware.RoleAdmin, middleware.RoleTeacher)
	}

	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(api.Group("/attendance", jwtMiddleware))
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware), guard)
	}
	if deps.TeacherHandler != nil {
		deps.TeacherHandler.Register(api.Group("/teachers", jwtMiddleware), guard)
	}
	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(api.Group("/classes", jwtMiddleware), guard)
	}
	if deps.SchoolHandler != nil {
		deps.SchoolHandler.Register(api.Group("/school", jwtMiddleware), guard)
	}
	if deps.CardHandler != nil {
		deps.CardHandler.Register(api.Group("/cards", jwtMiddleware))
	}
}

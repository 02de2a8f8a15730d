package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/coursehub-go-api/internal/config"
	"github.com/noah-isme/coursehub-go-api/internal/handler"
	"github.com/noah-isme/coursehub-go-api/internal/middleware"
	"github.com/noah-isme/coursehub-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler      *handler.StudentHandler
	MembershipHandler   *handler.MembershipHandler
	GroupHandler        *handler.GroupHandler
	AdminStudentHandler *handler.AdminStudentHandler
	ActivityHandler     *handler.AdminActivityHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.StudentHandler.Register(students)
	}

	if deps.MembershipHandler != nil {
		groupings := api.Group("/groupings", jwtMiddleware)
		deps.MembershipHandler.Register(groupings)
	}

	if deps.GroupHandler != nil {
		// provisioning creates rows under unique constraints; keep retries
		// from hammering the database
		assignments := api.Group("/assignments", jwtMiddleware,
			middleware.RateLimit("group-provision", 30, time.Minute))
		deps.GroupHandler.Register(assignments)
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole("admin", "teacher"))
	if deps.AdminStudentHandler != nil {
		adminStudents := admin.Group("/students")
		deps.AdminStudentHandler.Register(adminStudents)
		if deps.StudentHandler != nil {
			deps.StudentHandler.RegisterAdmin(adminStudents)
		}
	}
	if deps.ActivityHandler != nil {
		activity := admin.Group("/activity-logs")
		deps.ActivityHandler.Register(activity)
	}
}

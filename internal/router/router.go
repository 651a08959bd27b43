package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/praxisedu/assessment-api/internal/config"
	"github.com/praxisedu/assessment-api/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler *handler.AssessmentHandler
	SubmissionHandler *handler.SubmissionHandler
	GradebookHandler  *handler.GradebookHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AssessmentHandler != nil {
		assessments := app.Group("/api/v2/assessments", jwtMiddleware)
		deps.AssessmentHandler.Register(assessments)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v2/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.GradebookHandler != nil {
		gradebook := app.Group("/api/v2/gradebook", jwtMiddleware)
		deps.GradebookHandler.Register(gradebook)
	}
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intake-assistant/internal/api/http/handlers"
	"github.com/spec-kit/intake-assistant/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Intake         *handlers.IntakeHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	intake := api.Group("/intake", cfg.AuthMiddleware.Handle, auth.RequireUser())
	intake.Post("/respond", cfg.Intake.Respond)
	intake.Get("/status/:sessionID", cfg.Intake.Status)
	intake.Post("/questions", cfg.Intake.Questions)
	intake.Post("/submit", cfg.Intake.Submit)
}

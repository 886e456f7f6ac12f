package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chatkit/chat-backend/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Accounts *handlers.AccountsHandler
	Metrics  fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	users := app.Group("/api/users")
	users.Post("/signup", cfg.Accounts.Signup)
	users.Post("/login", cfg.Accounts.Login)
	users.Post("/logout", cfg.Accounts.Logout)
	users.Get("/me", cfg.Accounts.Me)
	users.Get("/", cfg.Accounts.List)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/buyback-service/internal/api/http/handlers"
	"github.com/spec-kit/buyback-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	StaffRequests  *handlers.StaffRequestsHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.Staff.ChangePassword)

	requests := app.Group("/requests")
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/track/:request_number", cfg.Requests.Track)
	requests.Get("/", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.StaffRequests.List)
	requests.Get("/:id", cfg.AuthMiddleware.OptionalHandle, cfg.Requests.Get)
	requests.Put("/:id", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.StaffRequests.Update)
	requests.Delete("/:id", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.StaffRequests.Delete)
}

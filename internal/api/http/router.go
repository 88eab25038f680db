package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roster-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Employees *handlers.EmployeesHandler
	Metrics   fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	app.Get("/", cfg.Employees.Index)

	employees := app.Group("/employees")
	employees.Get("/:id/manager", cfg.Employees.EditManager)
	employees.Post("/:id/manager", cfg.Employees.UpdateManager)

	// Links from earlier releases of the roster.
	app.Get("/update_manager/:id", cfg.Employees.EditManager)
	app.Post("/update_manager/:id", cfg.Employees.UpdateManager)
}

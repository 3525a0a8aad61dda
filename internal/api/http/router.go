package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-service/internal/api/http/handlers"
	"github.com/spec-kit/workorder-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	WorkOrders     *handlers.WorkOrdersHandler
	Comments       *handlers.CommentsHandler
	Attachments    *handlers.AttachmentsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	api.Post("/work-orders", cfg.WorkOrders.Create)
	api.Get("/work-orders", cfg.WorkOrders.List)
	api.Get("/work-orders/:id", cfg.WorkOrders.Get)
	api.Patch("/work-orders/:id", cfg.WorkOrders.Update)

	api.Post("/work-orders/:id/comments", cfg.Comments.Create)
	api.Get("/work-orders/:id/comments", cfg.Comments.List)

	api.Post("/work-orders/:id/attachments", cfg.Attachments.Register)
	api.Post("/work-orders/:id/attachments/batch", cfg.Attachments.RegisterBatch)
	api.Get("/work-orders/:id/attachments", cfg.Attachments.List)
	api.Delete("/attachments/:id", cfg.Attachments.Delete)
}

package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/mediaforge/renditions/cmd/renditions/container"
	"github.com/mediaforge/renditions/cmd/renditions/handlers"
)

// RegisterMediaRoutes registers all media upload and retrieval routes.
// writeMiddleware applies only to routes that ingest image bytes.
func RegisterMediaRoutes(e *echo.Echo, c *container.Container, writeMiddleware ...echo.MiddlewareFunc) {
	h := handlers.NewMediaHandler(c.MediaService)

	media := e.Group("/api/v1/media")
	{
		media.POST("", h.Upload, writeMiddleware...)     // POST   /api/v1/media
		media.GET("", h.List)                            // GET    /api/v1/media
		media.GET("/:id", h.Get)                         // GET    /api/v1/media/:id
		media.PUT("/:id", h.Replace, writeMiddleware...) // PUT    /api/v1/media/:id
		media.DELETE("/:id", h.Delete)                   // DELETE /api/v1/media/:id
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mediaforge/renditions/cmd/renditions/container"
	"github.com/mediaforge/renditions/cmd/renditions/routes"
	"github.com/mediaforge/renditions/common/bootstrap"
	"github.com/mediaforge/renditions/common/imaging"
	appmiddleware "github.com/mediaforge/renditions/common/middleware"
	"github.com/mediaforge/renditions/common/ratelimit"
	"github.com/mediaforge/renditions/common/server"
)

func main() {
	ctx := context.Background()

	components, err := bootstrap.Setup(ctx, "renditions")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap renditions: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// libvips must be up before the first pipeline call and down after
	// the last
	imaging.Startup(components.Config.Imaging.ConcurrencyLevel)
	defer imaging.Shutdown()

	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, components)
	routes.RegisterMediaRoutes(e, serviceContainer, uploadLimits(components)...)

	srv := server.New("renditions", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// uploadLimits builds the write-path rate limiting chain. Limiting
// requires Redis; without it the chain is empty.
func uploadLimits(components *bootstrap.Components) []echo.MiddlewareFunc {
	cfg := components.Config.RateLimit
	if !cfg.Enabled || components.Redis == nil {
		return nil
	}

	limiter := ratelimit.NewLimiter(components.Redis.GetUnderlying(), components.Logger)
	components.Logger.Info("upload rate limiting active", "per_minute", cfg.UploadsPerMinute)

	return []echo.MiddlewareFunc{
		appmiddleware.UploadRateLimit(limiter, int64(cfg.UploadsPerMinute)),
	}
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "renditions",
		})
	})
}

// Package bootstrap wires configuration, logging, storage disks and
// backing services into a Components value every cmd entry point starts
// from.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mediaforge/renditions/common/attachment"
	"github.com/mediaforge/renditions/common/cache"
	"github.com/mediaforge/renditions/common/config"
	"github.com/mediaforge/renditions/common/db"
	"github.com/mediaforge/renditions/common/logger"
	redisclient "github.com/mediaforge/renditions/common/redis"
	"github.com/mediaforge/renditions/common/storage"
	"github.com/mediaforge/renditions/common/telemetry"
)

// Setup initializes all service components
// This is the main entry point for all services
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Initialize database (if not skipped)
	if !options.skipDB {
		components.Logger.Info("connecting to database")
		components.DB, err = db.New(ctx, components.Config, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing database connection")
			components.DB.Close()
			return nil
		})

		if options.dbInitHook != nil {
			components.Logger.Info("running database init hook")
			if err := options.dbInitHook(components.DB); err != nil {
				components.Shutdown(ctx)
				return nil, fmt.Errorf("database init hook failed: %w", err)
			}
		}
	}

	// 4. Initialize Redis (if not skipped)
	if !options.skipRedis {
		components.Logger.Info("connecting to redis", "addr", components.Config.Redis.Addr)

		rdb := redis.NewClient(&redis.Options{
			Addr:     components.Config.Redis.Addr,
			Password: components.Config.Redis.Password,
			DB:       components.Config.Redis.DB,
		})
		components.Redis = redisclient.NewClient(rdb, components.Logger)

		if err := components.Redis.Ping(ctx); err != nil {
			components.Shutdown(ctx)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing redis connection")
			return rdb.Close()
		})
	}

	// 5. Build the storage disk registry
	components.Storage, err = buildStorage(components)
	if err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("failed to build storage registry: %w", err)
	}
	components.Attachments = attachment.NewManager(components.Storage, components.Logger)

	// 6. Initialize cache (if not skipped)
	if !options.skipCache {
		components.Logger.Info("initializing cache")
		components.Cache = cache.NewMemoryCache(components.Logger)

		components.addCleanup(func() error {
			components.Logger.Info("closing cache")
			return components.Cache.Close()
		})
	}

	// 7. Initialize telemetry (if not skipped)
	if !options.skipTelemetry && components.Config.Telemetry.EnablePprof {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(
			components.Config.Telemetry.PprofPort,
			components.Logger,
		)

		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
			// Don't fail startup if telemetry fails
		}
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"redis", components.Redis != nil,
		"default_disk", components.Config.Storage.DefaultDisk,
		"cache", components.Cache != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// buildStorage registers every configured disk. The local filesystem
// disk always exists; the Redis disk requires a live connection.
func buildStorage(components *Components) (*storage.Registry, error) {
	cfg := components.Config.Storage

	registry := storage.NewRegistry(cfg.DefaultDisk)

	fsDriver, err := storage.NewFSDriver(storage.FSConfig{
		Root:       cfg.FS.Root,
		BaseURL:    cfg.FS.BaseURL,
		Visibility: storage.Visibility(cfg.FS.Visibility),
		Secret:     cfg.FS.Secret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fs disk: %w", err)
	}
	registry.Register("local", fsDriver)

	if cfg.Redis.Enabled {
		if components.Redis == nil {
			return nil, fmt.Errorf("redis disk enabled but redis is not connected")
		}
		registry.Register("redis", storage.NewRedisDriver(components.Redis, storage.RedisConfig{
			Prefix:     cfg.Redis.Prefix,
			BaseURL:    cfg.Redis.BaseURL,
			Visibility: storage.Visibility(cfg.Redis.Visibility),
			Secret:     cfg.Redis.Secret,
		}))
	}

	return registry, nil
}

// MustSetup is like Setup but panics on error
// Useful for services that can't recover from initialization failure
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}

package database

import (
	"context"
	"strings"
	"time"

	"petal-pearl/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WakeupConfig configures the wake-up middleware.
type WakeupConfig struct {
	// Pinger checks the database. A nil Pinger disables the middleware.
	Pinger Pinger
	// Delay is the wait before the second ping.
	Delay time.Duration
	// Prefixes limits the middleware to matching paths.
	Prefixes []string
}

// NewWakeupMiddleware pings a possibly suspended serverless database before
// API requests. On failure it waits once and pings again. The request always proceeds.
func NewWakeupMiddleware(cfg WakeupConfig) fiber.Handler {
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = []string{"/orders", "/admin", "/products", "/courier", "/health"}
	}

	return func(c *fiber.Ctx) error {
		if cfg.Pinger == nil || !hasPrefix(c.Path(), cfg.Prefixes) {
			return c.Next()
		}

		ctx := c.UserContext()
		if err := ping(ctx, cfg.Pinger); err != nil {
			logger.Get().Warn("Database not responding, waiting for wake-up",
				zap.Duration("delay", cfg.Delay),
				zap.Error(err),
			)

			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return c.Next()
			}

			if err := ping(ctx, cfg.Pinger); err != nil {
				logger.Get().Error("Database still unavailable after wake-up attempt", zap.Error(err))
			}
		}

		return c.Next()
	}
}

func ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return p.PingContext(ctx)
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

package server

import (
	"context"
	"errors"
	"fmt"

	"petal-pearl/internal/core/config"
	"petal-pearl/internal/core/logger"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	_ "petal-pearl/docs/swagger"
)

// RayIDHeader carries the per-request correlation id.
const RayIDHeader = "X-Ray-ID"

// ErrorResponse is the body of every error answered by the API.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id,omitempty"`
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	// cfg holds the application configuration.
	cfg *config.AppConfig
}

// New creates a new Server instance with configured middleware.
func New(cfg *config.AppConfig) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "petal-pearl-api",
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Header: RayIDHeader,
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
		Fields: []string{"requestId", "latency", "status", "method", "url", "ip"},
	}))

	app.Use(helmet.New())

	if origins := cfg.CORS.AllowedOrigins(); origins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     "GET,HEAD,PUT,PATCH,POST,DELETE",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			ExposeHeaders:    RayIDHeader,
			AllowCredentials: true,
		}))
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	return &Server{
		App: app,
		cfg: cfg,
	}
}

// RegisterHealth mounts GET /health. It answers 503 when any check fails.
func (s *Server) RegisterHealth(checks map[string]HealthCheck) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		report := fiber.Map{}
		for name, check := range checks {
			if err := check(c.UserContext()); err != nil {
				status = fiber.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		state := "ok"
		if status != fiber.StatusOK {
			state = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{"status": state, "checks": report})
	})
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		logger.Get().Error("Unhandled error", zap.Error(err), zap.String("path", c.Path()))
	}

	rayID, _ := c.Locals("requestid").(string)
	return c.Status(code).JSON(ErrorResponse{Message: message, RayID: rayID})
}

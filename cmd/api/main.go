package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petal-pearl/internal/core/auth"
	"petal-pearl/internal/core/cache"
	"petal-pearl/internal/core/config"
	"petal-pearl/internal/core/database"
	"petal-pearl/internal/core/events"
	"petal-pearl/internal/core/lock"
	"petal-pearl/internal/core/logger"
	"petal-pearl/internal/core/observability"
	"petal-pearl/internal/core/server"
	catalogadapter "petal-pearl/internal/features/catalog/adapters"
	cataloghandler "petal-pearl/internal/features/catalog/handler"
	catalogports "petal-pearl/internal/features/catalog/ports"
	catalogservice "petal-pearl/internal/features/catalog/service"
	courieradapter "petal-pearl/internal/features/courier/adapters"
	courierhandler "petal-pearl/internal/features/courier/handler"
	courierports "petal-pearl/internal/features/courier/ports"
	courierservice "petal-pearl/internal/features/courier/service"
	notificationadapter "petal-pearl/internal/features/notifications/adapters"
	notificationhandler "petal-pearl/internal/features/notifications/handler"
	notificationports "petal-pearl/internal/features/notifications/ports"
	notificationservice "petal-pearl/internal/features/notifications/service"
	orderadapter "petal-pearl/internal/features/orders/adapters"
	orderhandler "petal-pearl/internal/features/orders/handler"
	orderports "petal-pearl/internal/features/orders/ports"
	orderservice "petal-pearl/internal/features/orders/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title Petal & Pearl API
// @version 1.0
// @description Storefront backend: catalog, checkout, Steadfast courier dispatch and admin notifications.
// @contact.name API Support
// @contact.email support@petalpearl.com
// @license.name MIT
// @host localhost:3000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx := context.Background()

	instruments, shutdownTelemetry, err := observability.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		l.Fatal("Failed to init telemetry", zap.Error(err))
	}

	db, closeDB := database.ConnectOrFallback(ctx, cfg.Database.URL)
	defer closeDB()

	store := newCache(cfg.Redis.URL)
	defer store.Close()

	bus := events.NewBus(cfg.Dispatch.EventBuffer)
	bus.Start()

	// Courier
	steadfast := courieradapter.NewSteadfastAdapter(cfg.Steadfast)
	courierSvc := courierservice.NewCourierService([]courierports.CourierGateway{
		courieradapter.NewCachedGateway(steadfast, store, cfg.Redis.TrackingCacheTTL),
	})
	courierHdl := courierhandler.NewCourierHandler(courierSvc)

	// Catalog
	catalogSvc := catalogservice.NewCatalogService(mustCatalogRepo(db))
	productHdl := cataloghandler.NewProductHandler(catalogSvc)

	// Orders
	locker := orderadapter.NewLeaseLocker(lock.NewLocker(store, "dispatch:"))
	orderSvc := orderadapter.NewTracedService(
		orderservice.NewOrderService(mustOrderRepo(db), courierSvc, locker,
			orderservice.WithEvents(bus),
			orderservice.WithLeaseTTL(cfg.Dispatch.LeaseTTL),
		),
		orderadapter.WithTracer(instruments.Tracer("petal-pearl/orders")),
		orderadapter.WithMeter(instruments.Meter("petal-pearl/orders")),
	)
	orderHdl := orderhandler.NewOrderHandler(orderSvc, catalogSvc)

	// Notifications
	var mailer notificationports.Mailer
	if cfg.SMTP.Host != "" {
		mailer = notificationadapter.NewSMTPMailer(cfg.SMTP)
	} else {
		l.Warn("SMTP_HOST not set, order emails will be skipped")
	}
	notificationSvc := notificationservice.NewNotificationService(
		mustNotificationRepo(db),
		mailer,
		cfg.SMTP.AdminRecipients(),
	)
	notificationSvc.Subscribe(bus)
	notificationHdl := notificationhandler.NewNotificationHandler(notificationSvc)

	srv := server.New(cfg)

	checks := map[string]server.HealthCheck{
		"cache": store.Ping,
	}
	if db != nil {
		pinger := database.GormPinger(db)
		srv.App.Use(database.NewWakeupMiddleware(database.WakeupConfig{
			Pinger: pinger,
			Delay:  cfg.Database.WakeupDelay,
		}))
		checks["database"] = pinger.PingContext
	}
	srv.RegisterHealth(checks)

	secret := []byte(cfg.Auth.JWTSecret)
	optional := auth.Optional(secret)
	required := auth.Required(secret)
	admin := auth.RequireAdmin()

	// Register Routes
	srv.App.Get("/products", productHdl.List)
	srv.App.Get("/products/:id", productHdl.Get)
	srv.App.Post("/products/bulk", required, admin, productHdl.CreateMany)
	srv.App.Post("/products", required, admin, productHdl.Create)
	srv.App.Patch("/products/:id", required, admin, productHdl.Update)
	srv.App.Delete("/products/:id", required, admin, productHdl.Delete)

	srv.App.Post("/orders", optional, orderHdl.Create)
	srv.App.Get("/orders/mine", required, orderHdl.Mine)
	srv.App.Get("/orders", required, admin, orderHdl.List)
	srv.App.Get("/orders/:id", required, admin, orderHdl.Get)
	srv.App.Patch("/orders/:id/status", required, admin, orderHdl.UpdateStatus)
	srv.App.Patch("/orders/:id/payment-status", required, admin, orderHdl.UpdatePaymentStatus)
	srv.App.Post("/orders/:id/confirm", required, admin, orderHdl.Confirm)
	srv.App.Get("/orders/:id/tracking", required, admin, orderHdl.Tracking)

	srv.App.Get("/courier/track/:consignmentId", required, admin, courierHdl.Track)

	srv.App.Get("/admin/stats", required, admin, orderHdl.Stats)
	srv.App.Get("/admin/notifications", required, admin, notificationHdl.List)
	srv.App.Patch("/admin/notifications/:id/read", required, admin, notificationHdl.MarkRead)

	go func() {
		if err := srv.Run(); err != nil {
			l.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("Server shutdown failed", zap.Error(err))
	}
	if err := bus.Close(shutdownCtx); err != nil {
		l.Warn("Event bus did not drain", zap.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		l.Warn("Telemetry shutdown failed", zap.Error(err))
	}
}

func newCache(redisURL string) cache.Cache {
	if redisURL == "" {
		logger.Get().Warn("REDIS_URL not set, dispatch leases are process-local")
		return cache.NewMemoryAdapter()
	}
	redisCache, err := cache.NewRedisAdapter(redisURL)
	if err != nil {
		logger.Get().Fatal("Failed to connect to redis", zap.Error(err))
	}
	return redisCache
}

func mustOrderRepo(db *gorm.DB) orderports.OrderRepository {
	if db == nil {
		return orderadapter.NewMemoryRepository()
	}
	repo, err := orderadapter.NewGormRepository(db)
	if err != nil {
		logger.Get().Fatal("Failed to migrate orders", zap.Error(err))
	}
	return repo
}

func mustCatalogRepo(db *gorm.DB) catalogports.Repository {
	if db == nil {
		return catalogadapter.NewMemoryRepository()
	}
	repo, err := catalogadapter.NewGormRepository(db)
	if err != nil {
		logger.Get().Fatal("Failed to migrate products", zap.Error(err))
	}
	return repo
}

func mustNotificationRepo(db *gorm.DB) notificationports.Repository {
	if db == nil {
		return notificationadapter.NewMemoryRepository()
	}
	repo, err := notificationadapter.NewGormRepository(db)
	if err != nil {
		logger.Get().Fatal("Failed to migrate notifications", zap.Error(err))
	}
	return repo
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/metaa35/qrwedding-sub000/internal/cache"
	"github.com/metaa35/qrwedding-sub000/internal/config"
	"github.com/metaa35/qrwedding-sub000/internal/database"
	"github.com/metaa35/qrwedding-sub000/internal/handlers"
	"github.com/metaa35/qrwedding-sub000/internal/metrics"
	"github.com/metaa35/qrwedding-sub000/internal/middleware"
	"github.com/metaa35/qrwedding-sub000/internal/services"
	"github.com/metaa35/qrwedding-sub000/internal/storage"
	"github.com/metaa35/qrwedding-sub000/pkg/linktoken"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
	"github.com/metaa35/qrwedding-sub000/pkg/utils"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("logger configuration failed: %v", err)
	}
	defer logger.Sync()

	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	utils.ConfigureErrors(cfg.Server.IsDevelopment())
	linktoken.Configure(cfg.Links.Secret, cfg.Links.Expiry)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	var store storage.ObjectStore
	switch cfg.Storage.Driver {
	case "memory":
		store = storage.NewMemoryStore()
		logger.Warn("storage_in_memory", map[string]interface{}{"note": "uploads are lost on restart"})
	default:
		minioClient, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("minio initialization failed: %v", err)
		}
		store = minioClient
	}

	renderer, err := services.NewQRRenderer(cfg.QR.ImageSize, cfg.QR.Margin, cfg.QR.DarkColor, cfg.QR.LightColor)
	if err != nil {
		log.Fatalf("qr renderer configuration failed: %v", err)
	}
	if err := os.MkdirAll(cfg.Upload.TempDir, 0o700); err != nil {
		log.Fatalf("failed creating upload temp dir: %v", err)
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	auditService := services.NewAuditService(db, cfg.Audit.QueueSize)
	accessService := services.NewAccessService(db)
	authService := services.NewAuthService(db, cfg.Registration.DefaultCapabilities)
	qrService := services.NewQRService(db, renderer, cfg.Server.FrontendURL, cfg.QR.MaxPerOwner)
	driveService := services.NewDriveService(db, store, cfg.Drive.RootFolder)
	linkBuilder := services.NewLinkBuilder(cfg.Server.PublicURL)
	uploadService := services.NewUploadService(db, qrService, driveService, linkBuilder, cfg.Upload.TempDir, cfg.Upload.MaxFileSize, cfg.Upload.MaxFiles)
	galleryService := services.NewGalleryService(accessService, driveService, linkBuilder)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := driveService.EnsureRoot(startupCtx); err != nil {
		cancelStartup()
		log.Fatalf("failed preparing upload drive: %v", err)
	}
	cancelStartup()

	var limiterStorage fiber.Storage
	var redisStorage *cache.RedisStorage
	if cfg.Redis.Addr != "" {
		redisStorage, err = cache.NewRedisStorage(cfg.Redis)
		if err != nil {
			log.Fatalf("redis initialization failed: %v", err)
		}
		limiterStorage = redisStorage
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)

	bodyLimit := cfg.Server.BodyLimitMB * 1024 * 1024
	app := fiber.New(fiber.Config{BodyLimit: bodyLimit})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	app.Use(middleware.Metrics())
	app.Use(middleware.RateLimit("global", cfg.RateLimit.Max, cfg.RateLimit.Window, limiterStorage))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, authMiddleware, handlers.Handlers{
		Auth:   handlers.NewAuthHandler(authService, auditService),
		QR:     handlers.NewQRHandler(qrService, auditService),
		Upload: handlers.NewUploadHandler(uploadService, galleryService, accessService, auditService),
		Public: handlers.NewPublicHandler(galleryService),
		Users:  handlers.NewUsersHandler(db, qrService, auditService),
		Audit:  handlers.NewAuditHandler(auditService),
	}, middleware.RateLimit("auth", cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow, limiterStorage))

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":        cfg.Server.Port,
		"address":     listenAddr,
		"environment": cfg.Server.Environment,
		"storage":     cfg.Storage.Driver,
		"db_driver":   cfg.DB.Driver,
		"body_limit":  fmt.Sprintf("%dMB", cfg.Server.BodyLimitMB),
		"redis":       cfg.Redis.Addr != "",
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server_error", err, nil)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := auditService.Close(ctx); err != nil {
		logger.Error("audit_queue_drain_failed", err, nil)
	}
	if redisStorage != nil {
		_ = redisStorage.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server_stopped", nil)
}

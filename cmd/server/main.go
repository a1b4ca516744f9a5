package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	_ "bookcatalog/docs" // swagger docs

	"bookcatalog/internal/auth"
	"bookcatalog/internal/cache"
	"bookcatalog/internal/config"
	"bookcatalog/internal/db"
	"bookcatalog/internal/handler"
	"bookcatalog/internal/logger"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/repository"
	"bookcatalog/internal/router"
	"bookcatalog/internal/service"
	"bookcatalog/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Book Catalog API
// @version 1.0
// @description Signup, login and book management with png cover uploads.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.WithError(err).Fatal("database init")
	}
	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		log.WithError(err).Fatal("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("redis unreachable, book cache disabled until it recovers")
	}
	cancelPing()

	m := metrics.New()

	imageStore, err := storage.NewS3ImageStore(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("object storage init")
	}
	cleanupWorker := service.NewCleanupWorker(imageStore, log, m)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	// Initialize services
	authService := service.NewAuthService(userRepo, hasher, jwtService, m)
	userService := service.NewUserService(userRepo)
	bookService := service.NewBookService(bookRepo, service.BookServiceOptions{
		Cache:        cacheClient,
		CacheTTL:     cfg.BookCacheTTL,
		Cleaner:      cleanupWorker,
		DefaultCover: cfg.DefaultCoverURL,
		Metrics:      m,
		Logger:       log,
	})
	imageService := service.NewImageService(imageStore, m)

	e := echo.New()
	e.HideBanner = true

	router.Register(
		e,
		cfg,
		log,
		m,
		jwtService,
		userService,
		handler.NewAuthHandler(authService),
		handler.NewBookHandler(bookService),
		handler.NewUploadHandler(imageService),
	)

	log.Infof("Swagger documentation available at: %s", swaggerURL(cfg))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	}

	// Pending image removals run to completion before exit
	cleanupWorker.Close()
	if err := cacheClient.Close(); err != nil {
		log.WithError(err).Warn("close redis")
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/") + "/swagger/index.html"
}

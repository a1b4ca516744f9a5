package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bookcatalog/docs"
	"bookcatalog/internal/config"
	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/gate"
	"bookcatalog/internal/handler"
	"bookcatalog/internal/logger"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log logrus.FieldLogger,
	m *metrics.Metrics,
	verifier gate.TokenVerifier,
	users gate.UserResolver,
	authHandler *handler.AuthHandler,
	bookHandler *handler.BookHandler,
	uploadHandler *handler.UploadHandler,
) {
	e.HTTPErrorHandler = apperrors.NewHTTPErrorHandler(log)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(logger.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = strings.TrimRight(host, "/")
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	authenticate := gate.Authenticate(verifier, m)
	resolve := gate.ResolveUser(users, m)
	requireAdmin := gate.RequireRole(model.RoleAdmin, m)

	// Public routes
	api.POST("/signup", authHandler.Signup)
	api.POST("/login", authHandler.Login)
	api.GET("/book", bookHandler.List)
	api.GET("/book/:id", bookHandler.Get)

	// Identity routes
	api.GET("/profile", authHandler.Profile, authenticate, resolve)

	// Book mutations, ownership is checked by the book service
	api.POST("/book", bookHandler.Create, authenticate, resolve, requireAdmin)
	api.PATCH("/book/:id", bookHandler.Update, authenticate, resolve, requireAdmin)
	api.DELETE("/book/:id", bookHandler.Delete, authenticate, resolve, requireAdmin)

	// Cover uploads
	uploadLimit := middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes))
	api.POST("/upload", uploadHandler.Upload, uploadLimit, authenticate, resolve, requireAdmin)
}

// bodyLimit renders a byte count in the unit syntax BodyLimit expects,
// leaving headroom for multipart framing.
func bodyLimit(maxBytes int64) string {
	const multipartOverheadKB = 64
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return fmt.Sprintf("%dK", (maxBytes+1023)/1024+multipartOverheadKB)
}

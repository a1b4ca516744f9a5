// Package gate holds the request authorization chain: token verification,
// identity resolution and role checks. Each gate short-circuits the request
// with a typed error on failure.
package gate

import (
	"context"
	"errors"
	"fmt"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"bookcatalog/internal/auth"
	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/model"
)

const (
	claimsKey      = "claims"
	currentUserKey = "currentUser"
	tokenFailedKey = "tokenFailed"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserResolver loads the identity behind a verified subject.
type UserResolver interface {
	Resolve(ctx context.Context, id string) (*model.User, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// verified claims on the context. It never touches storage.
func Authenticate(verifier TokenVerifier, m *metrics.Metrics) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := verifier.Verify(token)
			if err != nil {
				c.Set(tokenFailedKey, true)
				return nil, err
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if failed, _ := c.Get(tokenFailedKey).(bool); failed {
				m.Reject(metrics.ReasonInvalidToken)
			} else {
				m.Reject(metrics.ReasonMissingToken)
			}
			return fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
		},
	})
}

// ResolveUser loads the full identity for the verified claims. Must run after
// Authenticate. The stored user never carries a password hash.
func ResolveUser(resolver UserResolver, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil {
				m.Reject(metrics.ReasonMissingToken)
				return apperrors.ErrUnauthenticated
			}

			user, err := resolver.Resolve(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, apperrors.ErrUserNotFound) {
					m.Reject(metrics.ReasonUserNotFound)
				}
				return err
			}

			c.Set(currentUserKey, user.Sanitized())
			return next(c)
		}
	}
}

// RequireRole lets through only identities holding role. Must run after ResolveUser.
func RequireRole(role model.Role, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				m.Reject(metrics.ReasonMissingToken)
				return apperrors.ErrUnauthenticated
			}
			if user.Role != role {
				m.Reject(metrics.ReasonForbidden)
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}

// Claims returns the verified token claims, or nil outside an authenticated route.
func Claims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

// CurrentUser returns the resolved identity, or nil before ResolveUser ran.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(currentUserKey).(*model.User)
	return user
}

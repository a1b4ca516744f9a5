package gate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/auth"
	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/model"
)

const (
	adminID  = "64b7f0c2a1b2c3d4e5f60718"
	readerID = "64b7f0c2a1b2c3d4e5f60719"
	ghostID  = "64b7f0c2a1b2c3d4e5f60720"
)

type stubResolver struct {
	users map[string]*model.User
	err   error
	calls int
}

func (s *stubResolver) Resolve(ctx context.Context, id string) (*model.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

type fixture struct {
	echo     *echo.Echo
	jwt      *auth.JWTService
	resolver *stubResolver
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		echo: echo.New(),
		jwt:  auth.NewJWTService("test-secret", time.Hour),
		resolver: &stubResolver{users: map[string]*model.User{
			adminID:  {ID: adminID, Email: "admin@example.com", Role: model.RoleAdmin, PasswordHash: "hash"},
			readerID: {ID: readerID, Email: "reader@example.com", Role: model.RoleUser, PasswordHash: "hash"},
		}},
		metrics: metrics.New(),
	}
	f.echo.HTTPErrorHandler = apperrors.NewHTTPErrorHandler(log)

	authn := Authenticate(f.jwt, f.metrics)
	resolve := ResolveUser(f.resolver, f.metrics)

	f.echo.GET("/claims", func(c echo.Context) error {
		return c.JSON(http.StatusOK, Claims(c))
	}, authn)
	f.echo.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, CurrentUser(c))
	}, authn, resolve)
	f.echo.POST("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, authn, resolve, RequireRole(model.RoleAdmin, f.metrics))

	return f
}

func (f *fixture) token(t *testing.T, id string, role model.Role) string {
	t.Helper()
	token, _, err := f.jwt.Issue(&model.User{ID: id, Email: id + "@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func (f *fixture) do(method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate_AttachesClaims(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/claims", "Bearer "+f.token(t, adminID, model.RoleAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, adminID, body["id"])
	assert.Equal(t, "ADMIN", body["role"])
	assert.Zero(t, f.resolver.calls)
}

func TestAuthenticate_Rejections(t *testing.T) {
	f := newFixture(t)

	expired, _, err := auth.NewJWTService("test-secret", -time.Minute).Issue(&model.User{ID: adminID, Role: model.RoleAdmin})
	require.NoError(t, err)
	foreign, _, err := auth.NewJWTService("other-secret", time.Hour).Issue(&model.User{ID: adminID, Role: model.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		reason        string
	}{
		{"no header", "", metrics.ReasonMissingToken},
		{"no bearer prefix", f.token(t, adminID, model.RoleAdmin), metrics.ReasonMissingToken},
		{"expired", "Bearer " + expired, metrics.ReasonInvalidToken},
		{"signed elsewhere", "Bearer " + foreign, metrics.ReasonInvalidToken},
		{"garbage", "Bearer abc.def.ghi", metrics.ReasonInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(f.metrics.AuthRejections.WithLabelValues(tt.reason))

			rec := f.do(http.MethodGet, "/me", tt.authorization)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHENTICATED", decode(t, rec)["code"])
			assert.Equal(t, before+1, testutil.ToFloat64(f.metrics.AuthRejections.WithLabelValues(tt.reason)))
		})
	}
	assert.Zero(t, f.resolver.calls)
}

func TestResolveUser(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/me", "Bearer "+f.token(t, readerID, model.RoleUser))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")
	body := decode(t, rec)
	assert.Equal(t, readerID, body["_id"])
	assert.Equal(t, "reader@example.com", body["email"])
}

func TestResolveUser_DeletedIdentity(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/me", "Bearer "+f.token(t, ghostID, model.RoleAdmin))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decode(t, rec)["code"])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthRejections.WithLabelValues(metrics.ReasonUserNotFound)))
}

func TestResolveUser_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = errors.New("connection refused")

	rec := f.do(http.MethodGet, "/me", "Bearer "+f.token(t, adminID, model.RoleAdmin))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/admin", "Bearer "+f.token(t, adminID, model.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/admin", "Bearer "+f.token(t, readerID, model.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, rec)["code"])
}

func TestRequireRole_UsesStoredRoleNotTokenRole(t *testing.T) {
	f := newFixture(t)

	// reader holds USER in storage but presents a token claiming ADMIN
	rec := f.do(http.MethodPost, "/admin", "Bearer "+f.token(t, readerID, model.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_WithoutResolvedUser(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := RequireRole(model.RoleAdmin, nil)(func(c echo.Context) error { return nil })(c)

	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

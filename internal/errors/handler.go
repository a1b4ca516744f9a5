package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NewHTTPErrorHandler renders every error returned by handlers and middleware
// as an ErrorResponse. Server side failures are logged, never echoed back.
func NewHTTPErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var status int
		var body ErrorResponse

		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) && !isDomainError(err) {
			status = echoErr.Code
			body = ErrorResponse{Status: "error", Message: fmt.Sprint(echoErr.Message), Code: http.StatusText(status)}
			if status >= http.StatusInternalServerError {
				body.Message = InternalMessage
				body.Code = "INTERNAL_ERROR"
			}
		} else {
			httpErr := MapErrorToHTTP(err)
			status = httpErr.StatusCode
			body = httpErr.ToErrorResponse()
		}

		if status >= http.StatusInternalServerError {
			logger.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"uri":        c.Request().RequestURI,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).WithError(err).Error("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.WithError(writeErr).Warn("write error response")
		}
	}
}

// isDomainError reports whether err carries one of our own typed or sentinel
// errors, which take precedence over a wrapping echo error.
func isDomainError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return true
	}
	return MapErrorToHTTP(err).StatusCode != http.StatusInternalServerError
}

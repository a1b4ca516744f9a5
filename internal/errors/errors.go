package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when a request carries no usable token.
	ErrUnauthenticated = errors.New("missing, invalid or expired token")
	// ErrForbidden is returned when the identity lacks the required role.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrNotOwner is returned when the identity does not own the resource it mutates.
	ErrNotOwner = errors.New("only the owner of this book can perform this action")
	// ErrUserNotFound is returned when a token subject no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrBookNotFound is returned when a book does not exist.
	ErrBookNotFound = errors.New("book not found")
	// ErrEmailExists is returned on signup with an email already registered.
	ErrEmailExists = errors.New("email already exists")
	// ErrEmailNotRegistered is returned on login with an unknown email.
	ErrEmailNotRegistered = errors.New("this email is not yet registered in our website")
	// ErrInvalidCredentials is returned on login with a wrong password.
	ErrInvalidCredentials = errors.New("wrong password or email")
	// ErrNotAnImage is returned when an upload is not an image.
	ErrNotAnImage = errors.New("file must be an image")
	// ErrNotPNG is returned when an uploaded image is not a png.
	ErrNotPNG = errors.New("the image must be in png format")
)

// InternalMessage is the body message for unexpected failures.
var InternalMessage = map[string]string{
	"en":   "Internal server error",
	"ptbr": "Erro interno do servidor",
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Err        error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// Validation creates a 400 error carrying a field specific message.
func Validation(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, "VALIDATION_ERROR")
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	if e.StatusCode >= http.StatusInternalServerError {
		return ErrorResponse{Status: "error", Message: InternalMessage, Code: e.Code}
	}
	return ErrorResponse{
		Status:  "error",
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var mapped *HTTPError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		mapped = NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		mapped = NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrNotOwner):
		mapped = NewHTTPError(http.StatusForbidden, ErrNotOwner.Error(), "NOT_OWNER")
	case errors.Is(err, ErrUserNotFound):
		mapped = NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrBookNotFound):
		mapped = NewHTTPError(http.StatusNotFound, ErrBookNotFound.Error(), "BOOK_NOT_FOUND")
	case errors.Is(err, ErrEmailExists):
		mapped = NewHTTPError(http.StatusBadRequest, ErrEmailExists.Error(), "EMAIL_EXISTS")
	case errors.Is(err, ErrEmailNotRegistered):
		mapped = NewHTTPError(http.StatusBadRequest, ErrEmailNotRegistered.Error(), "EMAIL_NOT_REGISTERED")
	case errors.Is(err, ErrInvalidCredentials):
		mapped = NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrNotAnImage):
		mapped = NewHTTPError(http.StatusBadRequest, ErrNotAnImage.Error(), "INVALID_IMAGE")
	case errors.Is(err, ErrNotPNG):
		mapped = NewHTTPError(http.StatusBadRequest, ErrNotPNG.Error(), "INVALID_IMAGE")
	default:
		mapped = NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
	mapped.Err = err
	return mapped
}

package handler

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "bookcatalog/internal/errors"
)

// bindAndValidate decodes the request body into req and runs the registered
// validator. A field holding a value of the wrong JSON type is reported with
// that field's msg tag.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if msg := jsonFieldMessage(req, typeErr.Field); msg != "" {
				return apperrors.Validation(msg)
			}
		}
		return apperrors.Validation("Invalid request body")
	}
	return c.Validate(req)
}

func jsonFieldMessage(req interface{}, jsonName string) string {
	t := reflect.TypeOf(req)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == jsonName {
			return field.Tag.Get("msg")
		}
	}
	return ""
}

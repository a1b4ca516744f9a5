package router

import (
	"errors"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/model"
)

// messageTag names the struct tag holding the client facing message for a field.
const messageTag = "msg"

// bcrypt rejects passwords longer than 72 bytes.
const (
	minPasswordLength = 8
	maxPasswordLength = 72
)

var passwordRules = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[0-9]`),
	regexp.MustCompile(`[#?!@$ %^&*-]`),
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator registers the password, objectid, role and notblank rules.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return model.IsValidID(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseRole(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface. The first failing field is
// reported as a validation error carrying that field's msg tag.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation(err.Error())
	}

	first := fieldErrs[0]
	if msg := structFieldMessage(i, first.StructField()); msg != "" {
		return apperrors.Validation(msg)
	}
	return apperrors.Validation(first.Error())
}

func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}
	for _, rule := range passwordRules {
		if !rule.MatchString(password) {
			return false
		}
	}
	return true
}

func structFieldMessage(i interface{}, name string) string {
	t := reflect.TypeOf(i)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}
	field, ok := t.FieldByName(name)
	if !ok {
		return ""
	}
	return field.Tag.Get(messageTag)
}

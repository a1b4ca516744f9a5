package router

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/model"
)

type credentials struct {
	Password string `validate:"required,password" msg:"weak password"`
	Role     string `validate:"omitempty,role"`
	Owner    string `validate:"omitempty,objectid"`
}

func TestValidator_Password(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		password string
		valid    bool
	}{
		{"Abcdef1!", true},
		{"Abcdef1 ", true},
		{"Zz9#Zz9#Zz9#", true},
		{"abcdefgh", false},
		{"ABCDEFG1!", false},
		{"abcdefg1!", false},
		{"Abcdefgh!", false},
		{"Abcdefg1", false},
		{"Ab1!", false},
		{"Abcdef1!" + strings.Repeat("x", 64), true},
		{"Abcdef1!" + strings.Repeat("x", 65), false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := v.Validate(&credentials{Password: tt.password})
			if tt.valid {
				assert.NoError(t, err)
				return
			}

			var httpErr *apperrors.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
			assert.Equal(t, "weak password", httpErr.Message)
		})
	}
}

func TestValidator_FallsBackToFieldError(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&credentials{Password: "Abcdef1!", Role: "ROOT"})
	var httpErr *apperrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Contains(t, httpErr.Message, "'Role'")

	err = v.Validate(&credentials{Password: "Abcdef1!", Role: string(model.RoleAdmin), Owner: "xyz"})
	require.ErrorAs(t, err, &httpErr)
	assert.Contains(t, httpErr.Message, "'Owner'")

	assert.NoError(t, v.Validate(&credentials{Password: "Abcdef1!", Owner: model.NewID()}))
}

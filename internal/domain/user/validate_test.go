package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "user-service/pkg/errors"
)

func TestValidate_Success(t *testing.T) {
	in, err := Validate(map[string]any{
		"name":  "Ann",
		"email": "ann@example.com",
		"role":  "admin", // unknown keys are dropped
	})

	require.NoError(t, err)
	assert.Equal(t, Input{Name: "Ann", Email: "ann@example.com"}, in)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		raw        any
		wantFields []string
	}{
		{
			name:       "missing name",
			raw:        map[string]any{"email": "ann@example.com"},
			wantFields: []string{"name"},
		},
		{
			name:       "empty name",
			raw:        map[string]any{"name": "", "email": "ann@example.com"},
			wantFields: []string{"name"},
		},
		{
			name:       "numeric name is not coerced",
			raw:        map[string]any{"name": float64(42), "email": "ann@example.com"},
			wantFields: []string{"name"},
		},
		{
			name:       "invalid email",
			raw:        map[string]any{"name": "Ann", "email": "not-an-email"},
			wantFields: []string{"email"},
		},
		{
			name:       "missing email",
			raw:        map[string]any{"name": "Ann"},
			wantFields: []string{"email"},
		},
		{
			name:       "boolean email",
			raw:        map[string]any{"name": "Ann", "email": true},
			wantFields: []string{"email"},
		},
		{
			name:       "both invalid",
			raw:        map[string]any{"name": "", "email": "nope"},
			wantFields: []string{"name", "email"},
		},
		{
			name:       "nil input",
			raw:        nil,
			wantFields: []string{"name", "email"},
		},
		{
			name:       "array input",
			raw:        []any{"Ann", "ann@example.com"},
			wantFields: []string{"name", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Validate(tt.raw)
			require.Error(t, err)
			assert.Equal(t, Input{}, in)

			verr, ok := err.(*apperrors.ValidationError)
			require.True(t, ok, "expected *ValidationError, got %T", err)

			fields := make([]string, len(verr.Fields))
			for i, f := range verr.Fields {
				fields[i] = f.Field
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	_, err := Validate(map[string]any{"name": "", "email": "nope"})
	require.Error(t, err)

	verr := err.(*apperrors.ValidationError)
	assert.Equal(t, []apperrors.FieldError{
		{Field: "name", Message: MsgNameRequired},
		{Field: "email", Message: MsgInvalidEmail},
	}, verr.Fields)
}

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/infradash/internal/models"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		errMsg   string
		wantErr  bool
	}{
		{
			name:     "valid username - lowercase",
			username: "alice",
		},
		{
			name:     "valid username - email",
			username: "alice@example.com",
		},
		{
			name:     "valid username - with plus and dash",
			username: "ops+infra-team_1",
		},
		{
			name:     "valid username - single char",
			username: "a",
		},
		{
			name:     "valid username - max length",
			username: strings.Repeat("a", 150),
		},
		{
			name:     "invalid - empty username",
			username: "",
			wantErr:  true,
			errMsg:   "username cannot be empty",
		},
		{
			name:     "invalid - too long",
			username: strings.Repeat("a", 151),
			wantErr:  true,
			errMsg:   "must not exceed 150 characters",
		},
		{
			name:     "invalid - with space",
			username: "alice smith",
			wantErr:  true,
			errMsg:   "can only contain",
		},
		{
			name:     "invalid - cyrillic",
			username: "алиса",
			wantErr:  true,
			errMsg:   "can only contain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	assert.NoError(t, ValidateCredentials(models.Credentials{Username: "admin", Password: "x"}))

	err := ValidateCredentials(models.Credentials{Username: "admin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")

	err = ValidateCredentials(models.Credentials{Password: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateNewPassword(t *testing.T) {
	assert.NoError(t, ValidateNewPassword("old-password", "new-password"))

	err := ValidateNewPassword("", "new-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current password cannot be empty")

	err = ValidateNewPassword("old-password", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")

	err = ValidateNewPassword("same-password", "same-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

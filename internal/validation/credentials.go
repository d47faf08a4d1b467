package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/iudanet/infradash/internal/models"
)

// UsernamePattern определяет допустимый формат username
// Латинские буквы, цифры и символы @ . + - _
// Длина: 1-150 символов
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9@.+\-_]{1,150}$`)

const (
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 150
	// MinPasswordLen минимальная длина нового пароля
	MinPasswordLen = 8
)

// ErrInvalidCredentials базовая ошибка локальной проверки данных входа
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidateUsername проверяет, что username соответствует требованиям
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrInvalidCredentials)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("%w: username must not exceed %d characters", ErrInvalidCredentials, MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username can only contain letters, numbers and @/./+/-/_ characters", ErrInvalidCredentials)
	}

	return nil
}

// ValidateCredentials проверяет данные входа перед отправкой на backend.
// Сложность пароля проверяет backend.
func ValidateCredentials(creds models.Credentials) error {
	if err := ValidateUsername(creds.Username); err != nil {
		return err
	}
	if creds.Password == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrInvalidCredentials)
	}
	return nil
}

// ValidateNewPassword проверяет новый пароль при смене
func ValidateNewPassword(oldPassword, newPassword string) error {
	if oldPassword == "" {
		return fmt.Errorf("%w: current password cannot be empty", ErrInvalidCredentials)
	}

	if len(newPassword) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidCredentials, MinPasswordLen)
	}

	if newPassword == oldPassword {
		return fmt.Errorf("%w: new password must differ from the current one", ErrInvalidCredentials)
	}

	return nil
}

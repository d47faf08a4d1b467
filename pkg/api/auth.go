package api

import "github.com/iudanet/infradash/internal/models"

// LoginResponse ответ на POST /auth/login/
type LoginResponse struct {
	User    models.User `json:"user"`
	Access  string      `json:"access"`  // JWT access token
	Refresh string      `json:"refresh"` // refresh token
}

// RefreshRequest запрос на POST /auth/refresh/
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse ответ на обновление токена
// Refresh заполняется, только если backend ротирует refresh token
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// ChangePasswordRequest запрос на POST /auth/change-password/
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ErrorResponse тело ответа с ошибкой
// Backend возвращает либо message, либо detail, иногда errors с ошибками по полям
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Detail  any    `json:"detail,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// HealthResponse ответ на GET /health/
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

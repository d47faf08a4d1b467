package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/infradash/internal/models"
	pkgapi "github.com/iudanet/infradash/pkg/api"
)

type ctxKey string

// UserIDKey ключ ID пользователя в контексте запроса
const UserIDKey ctxKey = "user_id"

// authenticate проверяет Bearer access token
func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Ожидаем формат: "Bearer <token>"
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			sendError(w, "Authentication credentials were not provided.", http.StatusUnauthorized)
			return
		}

		claims, err := ValidateAccessToken(b.jwt, parts[1])
		if err != nil {
			b.logger.Warn("Invalid access token", "error", err)
			sendError(w, "Given token not valid for any token type", http.StatusUnauthorized)
			return
		}

		b.mu.Lock()
		_, active := b.accessTokens[parts[1]]
		b.mu.Unlock()
		if !active {
			sendError(w, "Given token not valid for any token type", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (b *Backend) health(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, pkgapi.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// login обрабатывает POST /auth/login/
func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.users[creds.Username]
	if !ok || acc.password != creds.Password {
		sendError(w, "No active account found with the given credentials", http.StatusUnauthorized)
		return
	}

	tokens, err := b.issueLocked(acc.user)
	if err != nil {
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	acc.user.LastLogin = time.Now().UTC().Truncate(time.Second)

	sendJSON(w, pkgapi.LoginResponse{
		User:    acc.user,
		Access:  tokens.Access,
		Refresh: tokens.Refresh,
	}, http.StatusOK)
}

// refresh обрабатывает POST /auth/refresh/
func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.refreshes++
	hook := b.refreshHook
	b.mu.Unlock()

	if hook != nil {
		hook()
	}

	var req pkgapi.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		sendError(w, "refresh token is required", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.refreshTokens[req.Refresh]
	if !ok {
		sendError(w, "Token is invalid or expired", http.StatusUnauthorized)
		return
	}
	acc, ok := b.userByID(userID)
	if !ok {
		sendError(w, "Token is invalid or expired", http.StatusUnauthorized)
		return
	}

	access, err := GenerateAccessToken(b.jwt, acc.user.ID, acc.user.Username)
	if err != nil {
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	b.accessTokens[access] = acc.user.ID

	resp := pkgapi.RefreshResponse{Access: access}
	if b.rotate {
		refresh, err := GenerateRefreshToken()
		if err != nil {
			sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		delete(b.refreshTokens, req.Refresh)
		b.refreshTokens[refresh] = acc.user.ID
		resp.Refresh = refresh
	}

	sendJSON(w, resp, http.StatusOK)
}

// logout обрабатывает POST /auth/logout/ и отзывает переданный refresh token
func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	var req pkgapi.RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.logouts++
	delete(b.refreshTokens, req.Refresh)
	w.WriteHeader(http.StatusNoContent)
}

// me обрабатывает GET /auth/me/
func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(UserIDKey).(int64)

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.userByID(userID)
	if !ok {
		sendError(w, "User not found", http.StatusNotFound)
		return
	}
	sendJSON(w, acc.user, http.StatusOK)
}

// changePassword обрабатывает POST /auth/change-password/
func (b *Backend) changePassword(w http.ResponseWriter, r *http.Request) {
	var req pkgapi.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	userID, _ := r.Context().Value(UserIDKey).(int64)

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.userByID(userID)
	if !ok {
		sendError(w, "User not found", http.StatusNotFound)
		return
	}
	if acc.password != req.OldPassword {
		sendJSON(w, pkgapi.ErrorResponse{
			Message: "Password change failed",
			Errors:  map[string][]string{"old_password": {"Wrong password."}},
		}, http.StatusBadRequest)
		return
	}
	if req.NewPassword == "" {
		sendJSON(w, pkgapi.ErrorResponse{
			Errors: map[string][]string{"new_password": {"This field may not be blank."}},
		}, http.StatusBadRequest)
		return
	}

	acc.password = req.NewPassword
	sendJSON(w, map[string]string{"detail": "Password updated successfully"}, http.StatusOK)
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/infradash/internal/client/storage"
)

// ErrMalformedToken токен не является JWT или не содержит корректный exp
var ErrMalformedToken = errors.New("malformed token")

// ParseExpiration извлекает exp из payload JWT без проверки подписи
func ParseExpiration(token string) (time.Time, error) {
	// JWT состоит из 3 частей, разделенных точками
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to decode payload: %w", ErrMalformedToken, err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to unmarshal claims: %w", ErrMalformedToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid exp claim: %w", ErrMalformedToken, err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("%w: exp claim is missing", ErrMalformedToken)
	}

	return exp.Time, nil
}

// TokenExpiration возвращает срок действия сохраненного access token.
// ok == false, если токена нет или он не разбирается.
func (s *Service) TokenExpiration(ctx context.Context) (time.Time, bool) {
	token, err := s.store.Token(ctx, storage.AccessToken)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read access token", slog.Any("error", err))
		return time.Time{}, false
	}
	if token == "" {
		return time.Time{}, false
	}

	exp, err := ParseExpiration(token)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to parse token", slog.Any("error", err))
		return time.Time{}, false
	}
	return exp, true
}

// IsTokenExpired true, если срок действия неизвестен или уже прошел
func (s *Service) IsTokenExpired(ctx context.Context) bool {
	exp, ok := s.TokenExpiration(ctx)
	if !ok {
		return true
	}
	return s.now().After(exp)
}

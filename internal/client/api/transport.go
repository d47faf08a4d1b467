package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HeaderRequestID заголовок корреляции запросов
const HeaderRequestID = "X-Request-Id"

// loggingTransport логирует каждый обмен с backend'ом и проставляет X-Request-Id.
// Тела запросов и заголовок Authorization не логируются.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func newLoggingTransport(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: logger}
}

// RoundTrip реализует http.RoundTripper
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
		// RoundTripper не должен менять исходный запрос
		req = req.Clone(req.Context())
		req.Header.Set(HeaderRequestID, requestID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.logger.WarnContext(req.Context(), "HTTP request failed",
			"method", req.Method,
			"path", sanitizePath(req.URL.Path),
			"request_id", requestID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	logLevel := slog.LevelDebug
	if resp.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if resp.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}

	t.logger.Log(req.Context(), logLevel, "HTTP request",
		"method", req.Method,
		"path", sanitizePath(req.URL.Path),
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)

	return resp, nil
}

// sanitizePath скрывает сегмент, следующий за token/reset
// Например: /auth/reset/abc123/ -> /auth/reset/***/
func sanitizePath(path string) string {
	if !strings.Contains(path, "/token/") && !strings.Contains(path, "/reset/") {
		return path
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if (part == "token" || part == "reset") && i+1 < len(parts) && parts[i+1] != "" {
			parts[i+1] = "***"
		}
	}
	return strings.Join(parts, "/")
}

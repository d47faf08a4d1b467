// Package apitest поднимает in-memory backend с REST API инвентаря
// для тестов клиента: аутентификация JWT, refresh токены, CRUD ресурсов,
// пагинация, bulk операции и загрузка файлов.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime/debug"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/infradash/internal/models"
	pkgapi "github.com/iudanet/infradash/pkg/api"
)

// APIPrefix префикс всех маршрутов backend'а
const APIPrefix = "/api/v1"

type account struct {
	password string
	user     models.User
}

type response struct {
	body   any
	status int
}

// Backend in-memory backend поверх httptest.Server
type Backend struct {
	Server *httptest.Server
	logger *slog.Logger

	users         map[string]*account
	refreshTokens map[string]int64
	accessTokens  map[string]int64
	collections   map[string]*collection
	overrides     map[string]response
	hits          map[string]int
	refreshHook   func()
	jwt           JWTConfig
	refreshes     int
	logouts       int
	nextUserID    int64
	mu            sync.Mutex
	rotate        bool
}

// New запускает backend и останавливает его по завершении теста
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		users:         make(map[string]*account),
		refreshTokens: make(map[string]int64),
		accessTokens:  make(map[string]int64),
		collections:   make(map[string]*collection),
		overrides:     make(map[string]response),
		hits:          make(map[string]int),
		jwt: JWTConfig{
			Secret:         []byte("apitest-secret"),
			AccessTokenTTL: 15 * time.Minute,
		},
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// BaseURL адрес API для api.NewClient
func (b *Backend) BaseURL() string {
	return b.Server.URL + APIPrefix
}

// JWT конфигурация подписи токенов
func (b *Backend) JWT() JWTConfig {
	return b.jwt
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.recovery)
	r.Use(b.record)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health/", b.health)
		r.Post("/auth/login/", b.login)
		r.Post("/auth/refresh/", b.refresh)

		r.Group(func(r chi.Router) {
			r.Use(b.authenticate)

			r.Post("/auth/logout/", b.logout)
			r.Get("/auth/me/", b.me)
			r.Post("/auth/change-password/", b.changePassword)

			r.Get("/{resource}/", b.list)
			r.Post("/{resource}/", b.create)
			r.Post("/{resource}/bulk_create/", b.bulkCreate)
			r.Patch("/{resource}/bulk_update/", b.bulkUpdate)
			r.Delete("/{resource}/bulk_delete/", b.bulkDelete)
			r.Post("/{resource}/upload/", b.upload)
			r.Get("/{resource}/{id}/", b.get)
			r.Put("/{resource}/{id}/", b.update)
			r.Patch("/{resource}/{id}/", b.patch)
			r.Delete("/{resource}/{id}/", b.remove)
		})
	})

	return r
}

func hitKey(method, path string) string {
	return method + " " + strings.TrimPrefix(path, APIPrefix)
}

// record считает запросы и подменяет ответ, если задан Respond
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := hitKey(r.Method, r.URL.Path)

		b.mu.Lock()
		b.hits[key]++
		override, ok := b.overrides[key]
		b.mu.Unlock()

		if ok {
			sendJSON(w, override.body, override.status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recovery перехватывает panic в обработчиках и отвечает 500
func (b *Backend) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				b.logger.Error("Panic recovered",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				sendError(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Hits число запросов method path (path без префикса /api/v1)
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[hitKey(method, path)]
}

// Refreshes число обращений к /auth/refresh/
func (b *Backend) Refreshes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshes
}

// Logouts число обращений к /auth/logout/
func (b *Backend) Logouts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logouts
}

// Respond задает фиксированный ответ для method path
func (b *Backend) Respond(method, path string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[hitKey(method, path)] = response{status: status, body: body}
}

// ClearResponse снимает фиксированный ответ
func (b *Backend) ClearResponse(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.overrides, hitKey(method, path))
}

// OnRefresh задает hook, вызываемый в начале обработки /auth/refresh/
func (b *Backend) OnRefresh(hook func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshHook = hook
}

// SetRotateRefresh включает выдачу нового refresh токена при каждом обновлении
func (b *Backend) SetRotateRefresh(rotate bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rotate = rotate
}

// ExpireAccessTokens делает все выданные access токены недействительными
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessTokens = make(map[string]int64)
}

// RevokeRefreshTokens делает все выданные refresh токены недействительными
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshTokens = make(map[string]int64)
}

// AddUser регистрирует пользователя. ID назначается, если не задан.
func (b *Backend) AddUser(user models.User, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	if user.ID == 0 {
		b.nextUserID++
		user.ID = b.nextUserID
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC().Truncate(time.Second)
	}
	b.users[user.Username] = &account{password: password, user: user}
	return user
}

// IssueTokens выдает пару токенов пользователю без login
func (b *Backend) IssueTokens(username string) (models.AuthTokens, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.users[username]
	if !ok {
		return models.AuthTokens{}, fmt.Errorf("user %q not found", username)
	}
	return b.issueLocked(acc.user)
}

func (b *Backend) issueLocked(user models.User) (models.AuthTokens, error) {
	access, err := GenerateAccessToken(b.jwt, user.ID, user.Username)
	if err != nil {
		return models.AuthTokens{}, err
	}
	refresh, err := GenerateRefreshToken()
	if err != nil {
		return models.AuthTokens{}, err
	}
	b.accessTokens[access] = user.ID
	b.refreshTokens[refresh] = user.ID
	return models.AuthTokens{Access: access, Refresh: refresh}, nil
}

func (b *Backend) userByID(id int64) (*account, bool) {
	for _, acc := range b.users {
		if acc.user.ID == id {
			return acc, true
		}
	}
	return nil, false
}

// sendJSON отправляет JSON ответ
func sendJSON(w http.ResponseWriter, data any, statusCode int) {
	if data == nil {
		w.WriteHeader(statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// sendError отправляет ошибку в формате {"detail": "..."}
func sendError(w http.ResponseWriter, detail string, statusCode int) {
	sendJSON(w, pkgapi.ErrorResponse{Detail: detail}, statusCode)
}

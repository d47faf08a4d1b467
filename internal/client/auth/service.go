package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/iudanet/infradash/internal/client/api"
	"github.com/iudanet/infradash/internal/client/storage"
	"github.com/iudanet/infradash/internal/models"
	"github.com/iudanet/infradash/internal/validation"
	pkgapi "github.com/iudanet/infradash/pkg/api"
)

// DefaultSessionTimeout время бездействия, после которого сессия считается истекшей
const DefaultSessionTimeout = 24 * time.Hour

var (
	// ErrNoRefreshToken refresh token отсутствует в хранилище
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrSessionExpired сессия истекла по неактивности или после неудачного обновления токена
	ErrSessionExpired = api.ErrSessionExpired
)

// SessionStore defines interface for session state persistence:
// tokens, last activity timestamp and user settings
type SessionStore interface {
	SetTokens(ctx context.Context, tokens models.AuthTokens) error
	Token(ctx context.Context, kind storage.TokenKind) (string, error)
	Clear(ctx context.Context) error
	IsAuthenticated(ctx context.Context) (bool, error)

	LastActivity(ctx context.Context) (time.Time, bool, error)
	TouchActivity(ctx context.Context, at time.Time) error
	ClearActivity(ctx context.Context) error

	Settings(ctx context.Context) (map[string]any, error)
	SaveSettings(ctx context.Context, patch map[string]any) error
	ClearSettings(ctx context.Context) error
}

// Service управляет сессией пользователя поверх api.Client:
// login/logout, кэш текущего пользователя, права, истечение по неактивности
type Service struct {
	client  *api.Client
	store   SessionStore
	logger  *slog.Logger
	now     func() time.Time
	user    *models.User
	timeout time.Duration
	mu      sync.RWMutex
}

// Option настраивает Service
type Option func(*Service)

// WithLogger задает logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSessionTimeout задает допустимое время бездействия
func WithSessionTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService создает новый сервис авторизации
func NewService(client *api.Client, store SessionStore, opts ...Option) *Service {
	s := &Service{
		client:  client,
		store:   store,
		logger:  slog.Default(),
		now:     time.Now,
		timeout: DefaultSessionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if client != nil {
		client.OnSessionExpired(s.forgetSession)
	}
	return s
}

// SessionTimeout возвращает допустимое время бездействия
func (s *Service) SessionTimeout() time.Duration {
	return s.timeout
}

// LoginResult содержит результат авторизации
type LoginResult struct {
	User   models.User
	Tokens models.AuthTokens
}

// Login выполняет аутентификацию пользователя.
// Ошибки backend'а возвращаются без изменений.
func (s *Service) Login(ctx context.Context, creds models.Credentials) (*LoginResult, error) {
	if err := validation.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	var resp pkgapi.LoginResponse
	if err := s.client.Post(ctx, api.PathLogin, creds, &resp, api.WithoutAuth()); err != nil {
		return nil, err
	}

	tokens := models.AuthTokens{Access: resp.Access, Refresh: resp.Refresh}
	if err := s.store.SetTokens(ctx, tokens); err != nil {
		return nil, fmt.Errorf("failed to save tokens: %w", err)
	}

	s.setUser(&resp.User)

	if err := s.store.TouchActivity(ctx, s.now()); err != nil {
		return nil, fmt.Errorf("failed to stamp activity: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("username", resp.User.Username))

	return &LoginResult{User: resp.User, Tokens: tokens}, nil
}

// Logout выполняет выход из системы.
// Ошибка backend'а только логируется, локальная сессия очищается всегда.
func (s *Service) Logout(ctx context.Context) error {
	refresh, err := s.store.Token(ctx, storage.RefreshToken)
	if err != nil {
		s.logger.DebugContext(ctx, "no refresh token during logout", slog.Any("error", err))
	}

	// Пытаемся уведомить сервер о logout (best effort)
	if err := s.client.Post(ctx, api.PathLogout, pkgapi.RefreshRequest{Refresh: refresh}, nil); err != nil {
		s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
	}

	if err := s.clearSession(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to clear local session: %w", err)
	}
	return nil
}

// CurrentUser возвращает пользователя из кэша или запрашивает /auth/me/.
// Любая ошибка запроса очищает сессию, результат nil.
func (s *Service) CurrentUser(ctx context.Context) *models.User {
	if user := s.User(); user != nil {
		return user
	}

	if !s.IsAuthenticated(ctx) {
		return nil
	}

	var user models.User
	if err := s.client.Get(ctx, api.PathMe, &user); err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch current user", slog.Any("error", err))
		if clearErr := s.clearSession(context.WithoutCancel(ctx)); clearErr != nil {
			s.logger.ErrorContext(ctx, "failed to clear session", slog.Any("error", clearErr))
		}
		return nil
	}

	s.setUser(&user)
	return s.User()
}

// User возвращает копию закэшированного пользователя без запроса к backend'у
func (s *Service) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	user := *s.user
	user.Groups = append([]string(nil), s.user.Groups...)
	return &user
}

func (s *Service) setUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		s.user = nil
		return
	}
	cached := *user
	cached.Groups = append([]string(nil), user.Groups...)
	s.user = &cached
}

// RefreshTokens обменивает сохраненный refresh token на новую пару.
// Отказ backend'а очищает сессию.
func (s *Service) RefreshTokens(ctx context.Context) (models.AuthTokens, error) {
	refresh, err := s.store.Token(ctx, storage.RefreshToken)
	if err != nil {
		return models.AuthTokens{}, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if refresh == "" {
		return models.AuthTokens{}, ErrNoRefreshToken
	}

	tokens, err := s.client.Refresh(ctx, refresh)
	if err != nil {
		if clearErr := s.clearSession(context.WithoutCancel(ctx)); clearErr != nil {
			s.logger.ErrorContext(ctx, "failed to clear session", slog.Any("error", clearErr))
		}
		return models.AuthTokens{}, err
	}

	if err := s.store.SetTokens(ctx, tokens); err != nil {
		return models.AuthTokens{}, fmt.Errorf("failed to save tokens: %w", err)
	}
	if err := s.store.TouchActivity(ctx, s.now()); err != nil {
		return models.AuthTokens{}, fmt.Errorf("failed to stamp activity: %w", err)
	}

	return tokens, nil
}

// ChangePassword меняет пароль текущего пользователя
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := validation.ValidateNewPassword(oldPassword, newPassword); err != nil {
		return err
	}

	req := pkgapi.ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}
	if err := s.client.Do(ctx, http.MethodPost, api.PathChangePassword, req, nil); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// IsAuthenticated true, если сохранен access token
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	ok, err := s.store.IsAuthenticated(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check authentication", slog.Any("error", err))
		return false
	}
	return ok
}

// IsSessionExpired true, если отметки активности нет
// или с нее прошло строго больше SessionTimeout
func (s *Service) IsSessionExpired(ctx context.Context) bool {
	last, ok, err := s.store.LastActivity(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read last activity", slog.Any("error", err))
		return true
	}
	if !ok {
		return true
	}
	return s.now().Sub(last) > s.timeout
}

// UpdateLastActivity отмечает активность пользователя текущим временем
func (s *Service) UpdateLastActivity(ctx context.Context) error {
	if err := s.store.TouchActivity(ctx, s.now()); err != nil {
		return fmt.Errorf("failed to stamp activity: %w", err)
	}
	return nil
}

// Initialize восстанавливает сессию при старте.
// nil, если входа не было, сессия истекла или backend не подтвердил пользователя.
func (s *Service) Initialize(ctx context.Context) *models.User {
	if !s.IsAuthenticated(ctx) {
		return nil
	}

	if s.IsSessionExpired(ctx) {
		s.logger.InfoContext(ctx, "session expired due to inactivity")
		if err := s.clearSession(ctx); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear session", slog.Any("error", err))
		}
		return nil
	}

	user := s.CurrentUser(ctx)
	if user == nil {
		return nil
	}

	if err := s.UpdateLastActivity(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh activity", slog.Any("error", err))
	}
	return user
}

// UserSettings возвращает сохраненные настройки пользователя
func (s *Service) UserSettings(ctx context.Context) (map[string]any, error) {
	return s.store.Settings(ctx)
}

// SaveUserSettings объединяет patch с сохраненными настройками
func (s *Service) SaveUserSettings(ctx context.Context, patch map[string]any) error {
	return s.store.SaveSettings(ctx, patch)
}

// forgetSession сбрасывает состояние сессии после того, как клиент сам удалил токены
func (s *Service) forgetSession(ctx context.Context) {
	s.setUser(nil)

	if err := errors.Join(s.store.ClearActivity(ctx), s.store.ClearSettings(ctx)); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear session state", slog.Any("error", err))
	}
}

// clearSession удаляет токены, кэш пользователя, отметку активности и настройки.
// Выполняет все шаги даже при ошибке одного из них.
func (s *Service) clearSession(ctx context.Context) error {
	s.setUser(nil)

	return errors.Join(
		s.store.Clear(ctx),
		s.store.ClearActivity(ctx),
		s.store.ClearSettings(ctx),
	)
}

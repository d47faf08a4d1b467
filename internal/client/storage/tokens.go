package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/iudanet/infradash/internal/crypto"
	"github.com/iudanet/infradash/internal/models"
)

// TokenKind selects one of the stored credentials
type TokenKind string

const (
	AccessToken  TokenKind = KeyAccessToken
	RefreshToken TokenKind = KeyRefreshToken
)

// TokenStore хранит токены, отметку последней активности и настройки пользователя
// поверх KVStorage. Если задан sealer, токены хранятся зашифрованными,
// остальные значения хранятся как есть. Формат токенов не проверяется.
type TokenStore struct {
	kv     KVStorage
	sealer *crypto.Sealer
}

// NewTokenStore создает TokenStore. sealer может быть nil (без шифрования).
func NewTokenStore(kv KVStorage, sealer *crypto.Sealer) *TokenStore {
	return &TokenStore{
		kv:     kv,
		sealer: sealer,
	}
}

// SetTokens сохраняет оба токена. Запись двух ключей не атомарна.
func (s *TokenStore) SetTokens(ctx context.Context, tokens models.AuthTokens) error {
	if err := s.putToken(ctx, KeyAccessToken, tokens.Access); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if err := s.putToken(ctx, KeyRefreshToken, tokens.Refresh); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// SetAccessToken заменяет только access token
func (s *TokenStore) SetAccessToken(ctx context.Context, access string) error {
	if err := s.putToken(ctx, KeyAccessToken, access); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	return nil
}

// Clear удаляет оба токена
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyAccessToken); err != nil {
		return fmt.Errorf("failed to delete access token: %w", err)
	}
	if err := s.kv.Delete(ctx, KeyRefreshToken); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// Token возвращает токен указанного вида или пустую строку, если его нет
func (s *TokenStore) Token(ctx context.Context, kind TokenKind) (string, error) {
	raw, err := s.kv.Get(ctx, string(kind))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get %s: %w", kind, err)
	}
	if len(raw) == 0 {
		return "", nil
	}

	if s.sealer == nil {
		return string(raw), nil
	}

	plaintext, err := s.sealer.Open(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", kind, err)
	}
	return plaintext, nil
}

// IsAuthenticated true, если сохранен access token. Срок действия не проверяется.
func (s *TokenStore) IsAuthenticated(ctx context.Context) (bool, error) {
	access, err := s.Token(ctx, AccessToken)
	if err != nil {
		return false, err
	}
	return access != "", nil
}

// LastActivity возвращает отметку последней активности.
// ok == false, если отметки нет или она не разбирается.
func (s *TokenStore) LastActivity(ctx context.Context) (at time.Time, ok bool, err error) {
	raw, err := s.kv.Get(ctx, KeyLastActivity)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get last activity: %w", err)
	}

	at, err = time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false, nil
	}
	return at, true, nil
}

// TouchActivity записывает отметку активности в формате ISO-8601
func (s *TokenStore) TouchActivity(ctx context.Context, at time.Time) error {
	value := at.UTC().Format(time.RFC3339Nano)
	if err := s.kv.Put(ctx, KeyLastActivity, []byte(value)); err != nil {
		return fmt.Errorf("failed to save last activity: %w", err)
	}
	return nil
}

// ClearActivity удаляет отметку активности
func (s *TokenStore) ClearActivity(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyLastActivity); err != nil {
		return fmt.Errorf("failed to delete last activity: %w", err)
	}
	return nil
}

// Settings возвращает сохраненные настройки пользователя (пустую map, если их нет)
func (s *TokenStore) Settings(ctx context.Context) (map[string]any, error) {
	settings := map[string]any{}

	raw, err := s.kv.Get(ctx, KeyUserSettings)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}

	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user settings: %w", err)
	}
	return settings, nil
}

// SaveSettings объединяет patch с уже сохраненными настройками (поверхностно)
func (s *TokenStore) SaveSettings(ctx context.Context, patch map[string]any) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	maps.Copy(settings, patch)

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal user settings: %w", err)
	}
	if err := s.kv.Put(ctx, KeyUserSettings, data); err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}
	return nil
}

// ClearSettings удаляет настройки пользователя
func (s *TokenStore) ClearSettings(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyUserSettings); err != nil {
		return fmt.Errorf("failed to delete user settings: %w", err)
	}
	return nil
}

func (s *TokenStore) putToken(ctx context.Context, key, value string) error {
	// пустой токен равнозначен его отсутствию
	if value == "" {
		return s.kv.Delete(ctx, key)
	}

	if s.sealer == nil {
		return s.kv.Put(ctx, key, []byte(value))
	}

	encrypted, err := s.sealer.Seal(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}
	return s.kv.Put(ctx, key, []byte(encrypted))
}

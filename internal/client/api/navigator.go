package api

import (
	"context"
	"net/url"
)

// Пути экрана входа
const (
	LoginPath            = "/login"
	ReasonSessionExpired = "session_expired"
)

// Navigator уводит пользователя на экран входа.
// Для CLI это сообщение о необходимости повторного login.
type Navigator interface {
	Redirect(ctx context.Context, target string)
}

// NavigatorFunc адаптер функции к Navigator
type NavigatorFunc func(ctx context.Context, target string)

// Redirect вызывает f(ctx, target)
func (f NavigatorFunc) Redirect(ctx context.Context, target string) {
	f(ctx, target)
}

type noopNavigator struct{}

func (noopNavigator) Redirect(context.Context, string) {}

// LoginTarget возвращает путь экрана входа с необязательной причиной
func LoginTarget(reason string) string {
	if reason == "" {
		return LoginPath
	}
	q := url.Values{}
	q.Set("reason", reason)
	return LoginPath + "?" + q.Encode()
}

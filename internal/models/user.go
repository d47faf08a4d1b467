package models

import "time"

// User представляет текущего пользователя, как его возвращает /auth/me/
type User struct {
	DateJoined  time.Time `json:"date_joined,omitempty"`
	LastLogin   time.Time `json:"last_login,omitempty"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Groups      []string  `json:"groups"`
	ID          int64     `json:"id"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`     // частичные права (view/add/change)
	IsSuperuser bool      `json:"is_superuser"` // все права
}

// Credentials представляет данные для входа
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthTokens пара токенов, выданная backend'ом
type AuthTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

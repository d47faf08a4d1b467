package auth

import "slices"

// Permission действие над ресурсом
type Permission string

const (
	PermView   Permission = "view"
	PermAdd    Permission = "add"
	PermChange Permission = "change"
	PermDelete Permission = "delete"
)

// staffPermissions права staff пользователя без superuser. delete не входит.
var staffPermissions = []Permission{PermView, PermAdd, PermChange}

// HasPermission проверяет право текущего пользователя.
// Проверка локальная, реальную авторизацию выполняет backend.
func (s *Service) HasPermission(p Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.user == nil:
		return false
	case s.user.IsSuperuser:
		return true
	case s.user.IsStaff:
		return slices.Contains(staffPermissions, p)
	default:
		return false
	}
}

// HasResourcePermission проверяет право на конкретный ресурс.
// Тип и id ресурса пока не влияют на результат.
func (s *Service) HasResourcePermission(p Permission, _ string, _ int64) bool {
	return s.HasPermission(p)
}

// HasAnyPermission true, если есть хотя бы одно из прав
func (s *Service) HasAnyPermission(ps ...Permission) bool {
	return slices.ContainsFunc(ps, s.HasPermission)
}

// HasGroup проверяет членство текущего пользователя в группе
func (s *Service) HasGroup(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return false
	}
	return slices.Contains(s.user.Groups, name)
}

// DisplayName имя для отображения: "Имя Фамилия", имя или username
func (s *Service) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.user == nil:
		return "Unknown User"
	case s.user.FirstName != "" && s.user.LastName != "":
		return s.user.FirstName + " " + s.user.LastName
	case s.user.FirstName != "":
		return s.user.FirstName
	default:
		return s.user.Username
	}
}

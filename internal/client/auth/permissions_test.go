package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/infradash/internal/models"
)

func TestService_HasPermission(t *testing.T) {
	tests := []struct {
		user *models.User
		want map[Permission]bool
		name string
	}{
		{
			name: "no user",
			want: map[Permission]bool{PermView: false, PermAdd: false, PermChange: false, PermDelete: false},
		},
		{
			name: "regular user",
			user: &models.User{Username: "bob"},
			want: map[Permission]bool{PermView: false, PermAdd: false, PermChange: false, PermDelete: false},
		},
		{
			name: "staff user",
			user: &models.User{Username: "carol", IsStaff: true},
			want: map[Permission]bool{PermView: true, PermAdd: true, PermChange: true, PermDelete: false},
		},
		{
			name: "superuser",
			user: &models.User{Username: "root", IsSuperuser: true},
			want: map[Permission]bool{PermView: true, PermAdd: true, PermChange: true, PermDelete: true, "export": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(nil, nil)
			svc.setUser(tt.user)

			for p, want := range tt.want {
				assert.Equal(t, want, svc.HasPermission(p), "permission %s", p)
				assert.Equal(t, want, svc.HasResourcePermission(p, "rack", 7), "resource permission %s", p)
			}
		})
	}
}

func TestService_HasAnyPermission(t *testing.T) {
	svc := NewService(nil, nil)
	svc.setUser(&models.User{Username: "carol", IsStaff: true})

	assert.True(t, svc.HasAnyPermission(PermDelete, PermView))
	assert.False(t, svc.HasAnyPermission(PermDelete))
	assert.False(t, svc.HasAnyPermission())
}

func TestService_HasGroup(t *testing.T) {
	svc := NewService(nil, nil)
	assert.False(t, svc.HasGroup("operators"))

	svc.setUser(&models.User{Username: "carol", Groups: []string{"operators", "network"}})
	assert.True(t, svc.HasGroup("operators"))
	assert.True(t, svc.HasGroup("network"))
	assert.False(t, svc.HasGroup("Operators"))
	assert.False(t, svc.HasGroup("admins"))
}

func TestService_DisplayName(t *testing.T) {
	tests := []struct {
		user *models.User
		name string
		want string
	}{
		{name: "no user", want: "Unknown User"},
		{name: "full name", user: &models.User{Username: "as", FirstName: "Alice", LastName: "Smith"}, want: "Alice Smith"},
		{name: "first name only", user: &models.User{Username: "as", FirstName: "Alice"}, want: "Alice"},
		{name: "last name only", user: &models.User{Username: "as", LastName: "Smith"}, want: "as"},
		{name: "username", user: &models.User{Username: "as"}, want: "as"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(nil, nil)
			svc.setUser(tt.user)
			assert.Equal(t, tt.want, svc.DisplayName())
		})
	}
}

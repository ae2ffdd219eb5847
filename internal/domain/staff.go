package domain

import (
	"time"

	"github.com/google/uuid"
)

// Staff roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Staff is a shop employee account
type Staff struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the account has the admin role
func (s *Staff) IsAdmin() bool {
	return s.Role == RoleAdmin
}

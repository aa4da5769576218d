// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is keyed by Email everywhere outside this package: orders and
// licenses store the lowercased email as their user_id.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	TelegramID   string    `db:"telegram_id"`
	FullName     string    `db:"full_name"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == StatusActive
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

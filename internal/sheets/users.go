// AngelaMos | 2026
// users.go

package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/user"
)

type UserRepository struct {
	c *Client
}

func NewUserRepository(c *Client) *UserRepository {
	return &UserRepository{c: c}
}

func userToRecord(u *user.User) record {
	return record{
		"id":          u.ID,
		"email":       u.Email,
		"password":    u.PasswordHash,
		"role":        u.Role,
		"telegram_id": u.TelegramID,
		"created_at":  formatTime(u.CreatedAt),
		"status":      u.Status,
		"full_name":   u.FullName,
	}
}

func recordToUser(r record) user.User {
	status := r["status"]
	if status == "" {
		status = user.StatusActive
	}
	role := r["role"]
	if role == "" {
		role = user.RoleUser
	}

	return user.User{
		ID:           r["id"],
		Email:        strings.ToLower(r["email"]),
		PasswordHash: r["password"],
		Role:         role,
		TelegramID:   r["telegram_id"],
		FullName:     r["full_name"],
		Status:       status,
		CreatedAt:    parseTime(r["created_at"]),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	unlock := r.c.lock(usersTab.name)
	defer unlock()

	rows, err := r.c.readAll(ctx, usersTab)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	for _, row := range rows {
		if strings.EqualFold(row.rec["email"], u.Email) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	return r.c.appendRow(ctx, usersTab, userToRecord(u))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	row, err := r.c.find(ctx, usersTab, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := recordToUser(row.rec)
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	rows, err := r.c.readAll(ctx, usersTab)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	for _, row := range rows {
		if strings.EqualFold(row.rec["email"], email) {
			u := recordToUser(row.rec)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	unlock := r.c.lock(usersTab.name)
	defer unlock()

	row, err := r.c.find(ctx, usersTab, "id", u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	current := recordToUser(row.rec)
	current.PasswordHash = u.PasswordHash
	current.Role = u.Role
	current.TelegramID = u.TelegramID
	current.FullName = u.FullName
	current.Status = u.Status

	return r.c.writeRow(ctx, usersTab, row, userToRecord(&current))
}

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.c.readAll(ctx, usersTab)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, recordToUser(row.rec))
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	return users, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

var _ user.Repository = (*UserRepository)(nil)

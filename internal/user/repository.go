// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectUser = `
	SELECT id, email, password_hash, role, telegram_id, full_name, status, created_at
	FROM users`

const insertUser = `
	INSERT INTO users (id, email, password_hash, role, telegram_id, full_name, status, created_at)
	VALUES (:id, :email, :password_hash, :role, :telegram_id, :full_name, :status, :created_at)`

// Email and created_at are immutable once registered.
const updateUser = `
	UPDATE users
	SET password_hash = :password_hash,
	    role = :role,
	    telegram_id = :telegram_id,
	    full_name = :full_name,
	    status = :status
	WHERE id = :id`

func (r *repository) Create(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	if _, err := sqlx.NamedExecContext(ctx, r.db, insertUser, user); err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", user.Email, core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *repository) getOne(ctx context.Context, column, value string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, selectUser+` WHERE `+column+` = $1`, value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("get user by %s: %w", column, core.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	res, err := sqlx.NamedExecContext(ctx, r.db, updateUser, user)
	if err != nil {
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update user %s: %w", user.ID, err)
	} else if n == 0 {
		return fmt.Errorf("update user %s: %w", user.ID, core.ErrNotFound)
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := r.db.SelectContext(ctx, &users, selectUser+` ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("check email %s: %w", email, err)
	}
	return exists, nil
}

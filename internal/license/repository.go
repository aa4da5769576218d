// AngelaMos | 2026
// repository.go

package license

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

type Repository interface {
	Create(ctx context.Context, l *License) error
	GetByID(ctx context.Context, id string) (*License, error)
	GetByOrderID(ctx context.Context, orderID string) (*License, error)
	ListByUser(ctx context.Context, userID string) ([]License, error)
	List(ctx context.Context) ([]License, error)
	UpdateStatus(ctx context.Context, id, status string) (*License, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const licenseColumns = `id, user_id, product_id, order_id, license_key, status,
		       expires_at, activations, created_at`

// Create relies on the unique order_id constraint so a replayed completion
// cannot mint a second license.
func (r *repository) Create(ctx context.Context, l *License) error {
	query := `
		INSERT INTO licenses (id, user_id, product_id, order_id, license_key,
		                      status, expires_at, activations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &l.CreatedAt, query,
		l.ID,
		l.UserID,
		l.ProductID,
		l.OrderID,
		l.LicenseKey,
		l.Status,
		l.ExpiresAt,
		l.Activations,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create license: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create license: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*License, error) {
	return r.getOne(ctx, "id", id)
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*License, error) {
	return r.getOne(ctx, "order_id", orderID)
}

func (r *repository) getOne(ctx context.Context, column, value string) (*License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE ` + column + ` = $1`

	var l License
	err := r.db.GetContext(ctx, &l, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get license: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get license: %w", err)
	}

	return &l, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]License, error) {
	query := `SELECT ` + licenseColumns + `
		FROM licenses
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var licenses []License
	if err := r.db.SelectContext(ctx, &licenses, query, userID); err != nil {
		return nil, fmt.Errorf("list user licenses: %w", err)
	}

	return licenses, nil
}

func (r *repository) List(ctx context.Context) ([]License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses ORDER BY created_at DESC`

	var licenses []License
	if err := r.db.SelectContext(ctx, &licenses, query); err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}

	return licenses, nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id, status string,
) (*License, error) {
	query := `
		UPDATE licenses SET status = $2
		WHERE id = $1
		RETURNING ` + licenseColumns

	var l License
	err := r.db.GetContext(ctx, &l, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update license status: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update license status: %w", err)
	}

	return &l, nil
}

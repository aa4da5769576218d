// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	// Transition moves an order from one status to another only if its
	// current status equals from. It returns core.ErrConflict when the
	// status differs and core.ErrNotFound when the order does not exist.
	Transition(ctx context.Context, id, from, to string, patch Patch) (*Order, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Order, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, product_id, amount, status, payment_id,
		       license_key, created_at, completed_at`

func (r *repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (id, user_id, product_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &o.CreatedAt, query,
		o.ID,
		o.UserID,
		o.ProductID,
		o.Amount,
		o.Status,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create order: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o Order
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var orders []Order
	if err := r.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}

	return orders, nil
}

func (r *repository) List(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	var orders []Order
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return orders, nil
}

func (r *repository) Transition(
	ctx context.Context,
	id, from, to string,
	patch Patch,
) (*Order, error) {
	if err := CheckTransition(from, to, patch); err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if to == StatusCompleted {
		t := patch.CompletedAt.UTC()
		completedAt = &t
	}

	query := `
		UPDATE orders
		SET status = $3,
		    payment_id = COALESCE(NULLIF($4, ''), payment_id),
		    license_key = COALESCE(NULLIF($5, ''), license_key),
		    completed_at = COALESCE($6, completed_at)
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns

	var o Order
	err := r.db.GetContext(ctx, &o, query,
		id,
		from,
		to,
		patch.PaymentID,
		patch.LicenseKey,
		completedAt,
	)
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition order: %w", err)
	}

	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, fmt.Errorf("transition order: %w", getErr)
	}

	return nil, fmt.Errorf(
		"transition order %s: status is %s: %w",
		id,
		current.Status,
		core.ErrConflict,
	)
}

func (r *repository) ListPendingBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at`

	var orders []Order
	if err := r.db.SelectContext(ctx, &orders, query, StatusPending, cutoff); err != nil {
		return nil, fmt.Errorf("list stale pending orders: %w", err)
	}

	return orders, nil
}

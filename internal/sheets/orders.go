// AngelaMos | 2026
// orders.go

package sheets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
)

type OrderRepository struct {
	c *Client
}

func NewOrderRepository(c *Client) *OrderRepository {
	return &OrderRepository{c: c}
}

func orderToRecord(o *order.Order) record {
	return record{
		"id":           o.ID,
		"user_id":      o.UserID,
		"product_id":   o.ProductID,
		"amount":       strconv.FormatInt(o.Amount, 10),
		"status":       o.Status,
		"payment_id":   o.PaymentID,
		"license_key":  o.LicenseKey,
		"created_at":   formatTime(o.CreatedAt),
		"completed_at": formatTimePtr(o.CompletedAt),
	}
}

func recordToOrder(r record) order.Order {
	return order.Order{
		ID:          r["id"],
		UserID:      r["user_id"],
		ProductID:   r["product_id"],
		Amount:      parseInt(r["amount"]),
		Status:      r["status"],
		PaymentID:   r["payment_id"],
		LicenseKey:  r["license_key"],
		CreatedAt:   parseTime(r["created_at"]),
		CompletedAt: parseTimePtr(r["completed_at"]),
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	unlock := r.c.lock(ordersTab.name)
	defer unlock()

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	if err := r.c.appendRow(ctx, ordersTab, orderToRecord(o)); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row, err := r.c.find(ctx, ordersTab, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	o := recordToOrder(row.rec)
	return &o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.filter(ctx, func(o *order.Order) bool { return o.UserID == userID })
}

func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	return r.filter(ctx, func(*order.Order) bool { return true })
}

func (r *OrderRepository) ListPendingBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]order.Order, error) {
	return r.filter(ctx, func(o *order.Order) bool {
		return o.Status == order.StatusPending &&
			!o.CreatedAt.IsZero() &&
			o.CreatedAt.Before(cutoff)
	})
}

func (r *OrderRepository) filter(
	ctx context.Context,
	keep func(*order.Order) bool,
) ([]order.Order, error) {
	rows, err := r.c.readAll(ctx, ordersTab)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]order.Order, 0, len(rows))
	for _, row := range rows {
		o := recordToOrder(row.rec)
		if keep(&o) {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	return orders, nil
}

// Transition re-reads the row under the tab lock and applies the
// compare-and-swap in memory before writing it back.
func (r *OrderRepository) Transition(
	ctx context.Context,
	id, from, to string,
	patch order.Patch,
) (*order.Order, error) {
	if err := order.CheckTransition(from, to, patch); err != nil {
		return nil, err
	}

	unlock := r.c.lock(ordersTab.name)
	defer unlock()

	row, err := r.c.find(ctx, ordersTab, "id", id)
	if err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}

	o := recordToOrder(row.rec)
	if err := o.Apply(from, to, patch); err != nil {
		return nil, err
	}

	if err := r.c.writeRow(ctx, ordersTab, row, orderToRecord(&o)); err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}

	return &o, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}

var _ order.Repository = (*OrderRepository)(nil)

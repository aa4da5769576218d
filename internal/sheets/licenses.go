// AngelaMos | 2026
// licenses.go

package sheets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/license"
)

type LicenseRepository struct {
	c *Client
}

func NewLicenseRepository(c *Client) *LicenseRepository {
	return &LicenseRepository{c: c}
}

func licenseToRecord(l *license.License) record {
	return record{
		"id":          l.ID,
		"user_id":     l.UserID,
		"product_id":  l.ProductID,
		"license_key": l.LicenseKey,
		"status":      l.Status,
		"expires_at":  formatTimePtr(l.ExpiresAt),
		"created_at":  formatTime(l.CreatedAt),
		"activations": strconv.Itoa(l.Activations),
		"order_id":    l.OrderID,
	}
}

func recordToLicense(r record) license.License {
	return license.License{
		ID:          r["id"],
		UserID:      r["user_id"],
		ProductID:   r["product_id"],
		OrderID:     r["order_id"],
		LicenseKey:  r["license_key"],
		Status:      r["status"],
		ExpiresAt:   parseTimePtr(r["expires_at"]),
		Activations: int(parseInt(r["activations"])),
		CreatedAt:   parseTime(r["created_at"]),
	}
}

// Create refuses a second license for the same order.
func (r *LicenseRepository) Create(ctx context.Context, l *license.License) error {
	unlock := r.c.lock(licensesTab.name)
	defer unlock()

	if l.OrderID != "" {
		_, err := r.c.find(ctx, licensesTab, "order_id", l.OrderID)
		if err == nil {
			return fmt.Errorf("create license: %w", core.ErrDuplicateKey)
		}
		if !isNotFound(err) {
			return fmt.Errorf("create license: %w", err)
		}
	}

	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	return r.c.appendRow(ctx, licensesTab, licenseToRecord(l))
}

func (r *LicenseRepository) GetByID(ctx context.Context, id string) (*license.License, error) {
	return r.getOne(ctx, "id", id)
}

func (r *LicenseRepository) GetByOrderID(ctx context.Context, orderID string) (*license.License, error) {
	return r.getOne(ctx, "order_id", orderID)
}

func (r *LicenseRepository) getOne(ctx context.Context, column, value string) (*license.License, error) {
	row, err := r.c.find(ctx, licensesTab, column, value)
	if err != nil {
		return nil, fmt.Errorf("get license: %w", err)
	}
	l := recordToLicense(row.rec)
	return &l, nil
}

func (r *LicenseRepository) ListByUser(ctx context.Context, userID string) ([]license.License, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, l := range all {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LicenseRepository) List(ctx context.Context) ([]license.License, error) {
	rows, err := r.c.readAll(ctx, licensesTab)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}

	licenses := make([]license.License, 0, len(rows))
	for _, row := range rows {
		licenses = append(licenses, recordToLicense(row.rec))
	}
	sort.SliceStable(licenses, func(i, j int) bool {
		return licenses[i].CreatedAt.After(licenses[j].CreatedAt)
	})

	return licenses, nil
}

func (r *LicenseRepository) UpdateStatus(
	ctx context.Context,
	id, status string,
) (*license.License, error) {
	unlock := r.c.lock(licensesTab.name)
	defer unlock()

	row, err := r.c.find(ctx, licensesTab, "id", id)
	if err != nil {
		return nil, fmt.Errorf("update license status: %w", err)
	}

	l := recordToLicense(row.rec)
	l.Status = status

	if err := r.c.writeRow(ctx, licensesTab, row, licenseToRecord(&l)); err != nil {
		return nil, fmt.Errorf("update license status: %w", err)
	}
	return &l, nil
}

var _ license.Repository = (*LicenseRepository)(nil)

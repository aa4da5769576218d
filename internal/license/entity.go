// AngelaMos | 2026
// entity.go

package license

import (
	"time"
)

const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// License is the authorization to use a compiled file: one row per
// completed order, never created for pending or failed ones.
type License struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	ProductID   string     `db:"product_id"`
	OrderID     string     `db:"order_id"`
	LicenseKey  string     `db:"license_key"`
	Status      string     `db:"status"`
	ExpiresAt   *time.Time `db:"expires_at"`
	Activations int        `db:"activations"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (l *License) IsActive(now time.Time) bool {
	if l.Status != StatusActive {
		return false
	}
	return l.ExpiresAt == nil || now.Before(*l.ExpiresAt)
}

// AngelaMos | 2026
// entity.go

package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const idPrefix = "ORDER-"

// Order.UserID holds the purchaser's lowercased email. Amount is the product
// price captured at creation and never re-read.
type Order struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	ProductID   string     `db:"product_id"`
	Amount      int64      `db:"amount"`
	Status      string     `db:"status"`
	PaymentID   string     `db:"payment_id"`
	LicenseKey  string     `db:"license_key"`
	CreatedAt   time.Time  `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

func NewID() string {
	return idPrefix + uuid.New().String()
}

func IsValidID(id string) bool {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

func (o *Order) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusFailed
}

// Patch carries the fields written together with a status transition.
type Patch struct {
	PaymentID   string
	LicenseKey  string
	CompletedAt time.Time
}

// CheckTransition enforces the only two legal moves, pending to completed
// and pending to failed, plus the fields each one must carry.
func CheckTransition(from, to string, patch Patch) error {
	if from != StatusPending {
		return fmt.Errorf("transition from %q: %w", from, core.ErrInvalidInput)
	}

	switch to {
	case StatusCompleted:
		if patch.LicenseKey == "" {
			return fmt.Errorf("complete without license key: %w", core.ErrInvalidInput)
		}
		if patch.CompletedAt.IsZero() {
			return fmt.Errorf("complete without timestamp: %w", core.ErrInvalidInput)
		}
	case StatusFailed:
	default:
		return fmt.Errorf("transition to %q: %w", to, core.ErrInvalidInput)
	}

	return nil
}

// Apply performs the transition on an in-memory copy. It is the
// compare-and-swap body for stores without conditional updates and must
// run under that store's write lock.
func (o *Order) Apply(from, to string, patch Patch) error {
	if err := CheckTransition(from, to, patch); err != nil {
		return err
	}

	if o.Status != from {
		return fmt.Errorf(
			"order %s is %s, expected %s: %w",
			o.ID,
			o.Status,
			from,
			core.ErrConflict,
		)
	}

	o.Status = to
	if to == StatusCompleted {
		completedAt := patch.CompletedAt.UTC()
		o.PaymentID = patch.PaymentID
		o.LicenseKey = patch.LicenseKey
		o.CompletedAt = &completedAt
	}

	return nil
}

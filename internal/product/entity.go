// AngelaMos | 2026
// entity.go

package product

import (
	"time"
)

// Product prices are whole rupiah.
type Product struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Price        int64     `db:"price"`
	FilePath     string    `db:"file_path"`
	CompiledPath string    `db:"compiled_path"`
	Status       string    `db:"status"`
	AdminID      string    `db:"admin_id"`
	CreatedAt    time.Time `db:"created_at"`
}

func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

const (
	StatusPending   = "pending"
	StatusCompiling = "compiling"
	StatusActive    = "active"
	StatusFailed    = "failed"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompiling, StatusActive, StatusFailed:
		return true
	}
	return false
}

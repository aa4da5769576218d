// AngelaMos | 2026
// dto.go

package order

import (
	"time"
)

type OrderResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	ProductID   string     `json:"product_id"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	PaymentID   string     `json:"payment_id"`
	LicenseKey  string     `json:"license_key"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ListResponse struct {
	Success bool            `json:"success"`
	Orders  []OrderResponse `json:"orders"`
}

type AdminListResponse struct {
	Success bool            `json:"success"`
	Data    []OrderResponse `json:"data"`
}

func ToResponse(o *Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		ProductID:   o.ProductID,
		Amount:      o.Amount,
		Status:      o.Status,
		PaymentID:   o.PaymentID,
		LicenseKey:  o.LicenseKey,
		CreatedAt:   o.CreatedAt,
		CompletedAt: o.CompletedAt,
	}
}

// ToPublicResponse omits the purchaser identity for unauthenticated status
// polling.
func ToPublicResponse(o *Order) OrderResponse {
	resp := ToResponse(o)
	resp.UserID = ""
	return resp
}

func ToResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToResponse(&orders[i]))
	}
	return out
}

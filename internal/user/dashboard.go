// AngelaMos | 2026
// dashboard.go

package user

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/license"
	"github.com/carterperez-dev/ea-marketplace/internal/middleware"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
)

type OrderLister interface {
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
}

type LicenseLister interface {
	ListByUser(ctx context.Context, userID string) ([]license.License, error)
}

type DashboardStats struct {
	TotalOrders     int   `json:"total_orders"`
	CompletedOrders int   `json:"completed_orders"`
	ActiveLicenses  int   `json:"active_licenses"`
	TotalSpent      int64 `json:"total_spent"`
}

type Dashboard struct {
	Orders   []order.OrderResponse     `json:"orders"`
	Licenses []license.LicenseResponse `json:"licenses"`
	Stats    DashboardStats            `json:"stats"`
}

type DashboardHandler struct {
	orders   OrderLister
	licenses LicenseLister
	now      func() time.Time
}

func NewDashboardHandler(orders OrderLister, licenses LicenseLister) *DashboardHandler {
	return &DashboardHandler{orders: orders, licenses: licenses, now: time.Now}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Get)
}

// Get scopes everything to the caller's email, which is the key orders and
// licenses are stored under.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := middleware.GetUserEmail(ctx)
	if email == "" {
		core.Unauthorized(w, "Access token required")
		return
	}

	orders, err := h.orders.ListByUser(ctx, email)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	licenses, err := h.licenses.ListByUser(ctx, email)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Data(w, Dashboard{
		Orders:   order.ToResponseList(orders),
		Licenses: license.ToResponseList(licenses),
		Stats:    summarize(orders, licenses, h.now()),
	})
}

func summarize(orders []order.Order, licenses []license.License, now time.Time) DashboardStats {
	stats := DashboardStats{TotalOrders: len(orders)}

	for i := range orders {
		if orders[i].Status == order.StatusCompleted {
			stats.CompletedOrders++
			stats.TotalSpent += orders[i].Amount
		}
	}

	for i := range licenses {
		if licenses[i].IsActive(now) {
			stats.ActiveLicenses++
		}
	}

	return stats
}

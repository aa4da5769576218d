// AngelaMos | 2026
// handler.go

package license

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/middleware"
)

type LicenseResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	ProductID   string     `json:"product_id"`
	OrderID     string     `json:"order_id"`
	LicenseKey  string     `json:"license_key"`
	Status      string     `json:"status"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Activations int        `json:"activations"`
	CreatedAt   time.Time  `json:"created_at"`
}

func ToResponse(l *License) LicenseResponse {
	return LicenseResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		ProductID:   l.ProductID,
		OrderID:     l.OrderID,
		LicenseKey:  l.LicenseKey,
		Status:      l.Status,
		ExpiresAt:   l.ExpiresAt,
		Activations: l.Activations,
		CreatedAt:   l.CreatedAt,
	}
}

func ToResponseList(licenses []License) []LicenseResponse {
	out := make([]LicenseResponse, 0, len(licenses))
	for i := range licenses {
		out = append(out, ToResponse(&licenses[i]))
	}
	return out
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Get("/licenses", h.ListMine)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/licenses", h.ListAll)
	r.Put("/licenses/{licenseID}/revoke", h.Revoke)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())
	if email == "" {
		core.Unauthorized(w, "Access token required")
		return
	}

	licenses, err := h.repo.ListByUser(r.Context(), email)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"success":  true,
		"licenses": ToResponseList(licenses),
	})
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.repo.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Data(w, ToResponseList(licenses))
}

// Revoke is idempotent: revoking a revoked license succeeds.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "licenseID")

	l, err := h.repo.UpdateStatus(r.Context(), id, StatusRevoked)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "license")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"success": true,
		"message": "License revoked",
		"license": ToResponse(l),
	})
}

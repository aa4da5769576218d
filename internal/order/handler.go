// AngelaMos | 2026
// handler.go

package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/middleware"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterUserRoutes mounts the caller's order history on an authenticated
// router. Orders are keyed by the email in the access token.
func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Get("/orders", h.ListMine)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.ListAll)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())
	if email == "" {
		core.Unauthorized(w, "Access token required")
		return
	}

	orders, err := h.repo.ListByUser(r.Context(), email)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ListResponse{Success: true, Orders: ToResponseList(orders)})
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, AdminListResponse{Success: true, Data: ToResponseList(orders)})
}

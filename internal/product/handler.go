// AngelaMos | 2026
// handler.go

package product

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/middleware"
)

type Handler struct {
	catalog   *Catalog
	service   *Service
	validator *validator.Validate
}

func NewHandler(catalog *Catalog, service *Service) *Handler {
	return &Handler{
		catalog:   catalog,
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{productID}", h.Get)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, source := h.catalog.ListActive(r.Context())

	core.OK(w, ListResponse{
		Success:  true,
		Source:   source,
		Products: ToPublicList(products),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	p, err := h.catalog.GetActive(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, DetailResponse{Success: true, Product: ToPublic(p)})
}

// RegisterAdminRoutes mounts product management on an admin-only router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.AdminList)
		r.Post("/", h.Create)
		r.Put("/{productID}", h.Update)
		r.Put("/{productID}/status", h.UpdateStatus)
		r.Delete("/{productID}", h.Delete)
	})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, AdminListResponse{Success: true, Data: ToAdminList(products)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Create(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, AdminDetailResponse{
		Success: true,
		Message: "Product created successfully",
		Product: ToAdmin(p),
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "productID"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, AdminDetailResponse{
		Success: true,
		Message: "Product updated successfully",
		Product: ToAdmin(p),
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.UpdateStatus(
		r.Context(),
		chi.URLParam(r, "productID"),
		req,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, AdminDetailResponse{
		Success: true,
		Message: "Product status updated",
		Product: ToAdmin(p),
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.writeError(w, err)
		return
	}

	core.Success(w, "Product deleted successfully")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := core.Bind(r, h.validator, dst); err != nil {
		core.JSONError(w, err)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "product")
	case errors.Is(err, core.ErrStoreUnavailable):
		core.JSONError(w, core.StoreError("Store unavailable"))
	default:
		core.InternalServerError(w, err)
	}
}

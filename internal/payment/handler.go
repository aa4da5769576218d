// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/gateway"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
)

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type CreateTransactionRequest struct {
	ProductID     string `json:"product_id"     validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerName  string `json:"customer_name"  validate:"required,max=255"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=32"`
}

type CreateTransactionResponse struct {
	Success          bool   `json:"success"`
	TransactionToken string `json:"transaction_token"`
	RedirectURL      string `json:"redirect_url"`
	OrderID          string `json:"order_id"`
}

type StatusResponse struct {
	Success bool                `json:"success"`
	Order   order.OrderResponse `json:"order"`
}

type MockCompleteRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Status  string `json:"status"`
}

type Handler struct {
	service   *Service
	cookie    CookieConfig
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, cookie CookieConfig, logger *slog.Logger) *Handler {
	if cookie.Name == "" {
		cookie.Name = "midtrans_transaction"
	}
	if cookie.TTL <= 0 {
		cookie.TTL = time.Hour
	}

	return &Handler{
		service:   service,
		cookie:    cookie,
		validator: core.NewValidator(),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/create-transaction", h.CreateTransaction)
		r.Post("/notification", h.Notification)
		r.Get("/status/{orderID}", h.Status)
		r.Post("/mock/complete", h.MockComplete)
	})
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders/{orderID}/gateway-status", h.GatewayStatus)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, missingFieldsMessage)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Tag() == "required" {
			core.BadRequest(w, missingFieldsMessage)
			return
		}
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.CreateTransaction(r.Context(), CreateTransactionInput{
		ProductID:     req.ProductID,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    result.TransactionToken,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	})

	core.OK(w, CreateTransactionResponse{
		Success:          true,
		TransactionToken: result.TransactionToken,
		RedirectURL:      result.RedirectURL,
		OrderID:          result.OrderID,
	})
}

// Notification answers 200 for everything past the signature check.
func (h *Handler) Notification(w http.ResponseWriter, r *http.Request) {
	var n gateway.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		core.BadRequest(w, "Invalid notification payload")
		return
	}

	if err := h.service.HandleNotification(r.Context(), &n); err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, map[string]any{"success": true})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Status(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, StatusResponse{Success: true, Order: order.ToPublicResponse(o)})
}

func (h *Handler) MockComplete(w http.ResponseWriter, r *http.Request) {
	var req MockCompleteRequest
	if err := core.Bind(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	o, err := h.service.MockComplete(r.Context(), req.OrderID, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, StatusResponse{Success: true, Order: order.ToPublicResponse(o)})
}

func (h *Handler) GatewayStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.GatewayStatus(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"success": true,
		"status":  st,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}
	core.InternalServerError(w, err)
}

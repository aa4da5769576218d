// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/events"
	"github.com/carterperez-dev/ea-marketplace/internal/gateway"
	"github.com/carterperez-dev/ea-marketplace/internal/license"
	"github.com/carterperez-dev/ea-marketplace/internal/notify"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
	"github.com/carterperez-dev/ea-marketplace/internal/product"
)

const missingFieldsMessage = "Missing required fields: product_id, customer_email, customer_name"

type ProductResolver interface {
	GetActive(ctx context.Context, id string) (*product.Product, error)
	Get(ctx context.Context, id string) (*product.Product, error)
}

type ChatResolver interface {
	TelegramChatID(ctx context.Context, email string) (string, error)
}

type KeyGenerator interface {
	Generate(userID, productID string) (string, error)
}

type Deps struct {
	Orders    order.Repository
	Licenses  license.Repository
	Products  ProductResolver
	Users     ChatResolver
	Gateway   gateway.Gateway
	Notifier  notify.Notifier
	Publisher events.Publisher
	Deduper   Deduper
	Keys      KeyGenerator
	Logger    *slog.Logger
}

// Service is the order orchestrator: it opens orders against the gateway
// and settles them from the gateway's notifications.
type Service struct {
	orders    order.Repository
	licenses  license.Repository
	products  ProductResolver
	users     ChatResolver
	gateway   gateway.Gateway
	notifier  notify.Notifier
	publisher events.Publisher
	deduper   Deduper
	keys      KeyGenerator
	logger    *slog.Logger

	now           func() time.Time
	effectTimeout time.Duration
}

func NewService(d Deps) *Service {
	s := &Service{
		orders:        d.Orders,
		licenses:      d.Licenses,
		products:      d.Products,
		users:         d.Users,
		gateway:       d.Gateway,
		notifier:      d.Notifier,
		publisher:     d.Publisher,
		deduper:       d.Deduper,
		keys:          d.Keys,
		logger:        d.Logger,
		now:           time.Now,
		effectTimeout: 15 * time.Second,
	}

	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.deduper == nil {
		s.deduper = NopDeduper{}
	}
	if s.keys == nil {
		s.keys = license.NewKeyGenerator()
	}

	return s
}

type CreateTransactionInput struct {
	ProductID     string
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
}

type CreateTransactionResult struct {
	OrderID          string
	TransactionToken string
	RedirectURL      string
}

func (s *Service) CreateTransaction(
	ctx context.Context,
	in CreateTransactionInput,
) (*CreateTransactionResult, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.CustomerName = strings.TrimSpace(in.CustomerName)

	if in.ProductID == "" || in.CustomerEmail == "" || in.CustomerName == "" {
		return nil, core.ValidationError(missingFieldsMessage)
	}

	p, err := s.products.GetActive(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("product")
		}
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	o := &order.Order{
		ID:        order.NewID(),
		UserID:    in.CustomerEmail,
		ProductID: p.ID,
		Amount:    p.Price,
		Status:    order.StatusPending,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		s.logger.Error("order create failed",
			"product_id", p.ID,
			"error", err,
		)
		return nil, core.StoreError("Failed to create order")
	}

	core.AddSpanEvent(ctx, "order.created",
		attribute.String("order_id", o.ID),
		attribute.Int64("amount", o.Amount),
	)

	tx, err := s.gateway.CreateTransaction(ctx, gateway.TransactionRequest{
		OrderID:       o.ID,
		Amount:        o.Amount,
		ProductID:     p.ID,
		ProductName:   p.Name,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
	})
	if err != nil {
		// The order stays pending; the sweeper fails it after the TTL.
		s.logger.Error("gateway create transaction failed",
			"order_id", o.ID,
			"mode", s.gateway.Mode(),
			"error", err,
		)
		return nil, core.GatewayError("Payment creation failed")
	}

	summary := notify.OrderSummary{
		OrderID:       o.ID,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		ProductName:   p.Name,
		Amount:        o.Amount,
	}

	s.runEffects(ctx, o.ID, []effect{
		{
			name: effectNotifyAdmin,
			run: func(ctx context.Context) error {
				return s.notifier.NotifyAdminNewOrder(ctx, summary)
			},
		},
		s.publishEffect(o, events.OrderCreated),
	})

	s.logger.Info("order created",
		"order_id", o.ID,
		"product_id", p.ID,
		"amount", o.Amount,
	)

	return &CreateTransactionResult{
		OrderID:          o.ID,
		TransactionToken: tx.Token,
		RedirectURL:      tx.RedirectURL,
	}, nil
}

// HandleNotification authenticates and applies a gateway notification.
// Only a signature failure is returned; every later failure is logged and
// alerted so the gateway is never asked to retry.
func (s *Service) HandleNotification(ctx context.Context, n *gateway.Notification) error {
	if !s.gateway.VerifySignature(n) {
		s.logger.Warn("notification signature mismatch", "order_id", n.OrderID)
		return core.SignatureError()
	}

	outcome := n.Outcome()
	log := s.logger.With(
		"order_id", n.OrderID,
		"transaction_status", n.TransactionStatus,
		"fraud_status", n.FraudStatus,
	)

	if outcome == gateway.OutcomeIgnore {
		log.Info("notification ignored")
		return nil
	}

	first, err := s.deduper.FirstDelivery(ctx, n.OrderID, string(outcome))
	if err != nil {
		log.Warn("notification dedupe unavailable, relying on transition check", "error", err)
		first = true
	}
	if !first {
		log.Info("duplicate notification dropped")
		return nil
	}

	switch outcome {
	case gateway.OutcomeSuccess:
		err = s.completeOrder(ctx, n)
	case gateway.OutcomeFailure:
		_, err = s.failOrder(ctx, n.OrderID, "gateway "+n.TransactionStatus)
	}

	if err != nil {
		log.Error("notification processing failed", "error", err)
		s.alert(ctx, fmt.Sprintf("Order %s: notification processing failed: %v", n.OrderID, err))

		if relErr := s.deduper.Release(ctx, n.OrderID, string(outcome)); relErr != nil {
			log.Warn("dedupe release failed", "error", relErr)
		}
		return nil
	}

	if cErr := s.deduper.Confirm(ctx, n.OrderID, string(outcome)); cErr != nil {
		log.Warn("dedupe confirm failed", "error", cErr)
	}

	return nil
}

func (s *Service) completeOrder(ctx context.Context, n *gateway.Notification) error {
	current, err := s.orders.GetByID(ctx, n.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	if current.Status != order.StatusPending {
		s.settledTerminal(ctx, current, n)
		return nil
	}

	key, err := s.keys.Generate(current.UserID, current.ProductID)
	if err != nil {
		return err
	}

	completed, err := s.orders.Transition(ctx, current.ID,
		order.StatusPending, order.StatusCompleted,
		order.Patch{
			PaymentID:   n.TransactionID,
			LicenseKey:  key,
			CompletedAt: s.now(),
		},
	)
	if errors.Is(err, core.ErrConflict) {
		latest, loadErr := s.orders.GetByID(ctx, current.ID)
		if loadErr != nil {
			return fmt.Errorf("reload order after conflict: %w", loadErr)
		}
		s.settledTerminal(ctx, latest, n)
		return nil
	}
	if err != nil {
		return fmt.Errorf("complete order: %w", err)
	}

	core.AddSpanEvent(ctx, "order.completed", attribute.String("order_id", completed.ID))
	s.logger.Info("order completed",
		"order_id", completed.ID,
		"payment_id", completed.PaymentID,
	)

	s.runEffects(ctx, completed.ID, s.completionEffects(completed))

	return nil
}

// settledTerminal handles a successful payment for an order that already
// left pending. A completed order is a retry; a failed one means money was
// taken for an order that will never deliver.
func (s *Service) settledTerminal(ctx context.Context, o *order.Order, n *gateway.Notification) {
	if o.Status != order.StatusFailed {
		s.logger.Info("order already processed", "order_id", o.ID, "status", o.Status)
		return
	}

	s.logger.Error("payment settled for failed order",
		"order_id", o.ID,
		"payment_id", n.TransactionID,
		"gross_amount", n.GrossAmount,
		"customer", o.UserID,
	)
	s.alert(ctx, fmt.Sprintf(
		"Order %s was paid (transaction %s, %s) after it was marked failed. Customer %s needs manual reconciliation.",
		o.ID, n.TransactionID, n.GrossAmount, o.UserID,
	))
}

// failOrder reports whether this call performed the transition.
func (s *Service) failOrder(ctx context.Context, orderID, reason string) (bool, error) {
	failed, err := s.orders.Transition(ctx, orderID,
		order.StatusPending, order.StatusFailed, order.Patch{})
	if errors.Is(err, core.ErrConflict) {
		s.logger.Info("order already processed", "order_id", orderID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fail order: %w", err)
	}

	core.AddSpanEvent(ctx, "order.failed", attribute.String("order_id", orderID))
	s.logger.Info("order failed", "order_id", orderID, "reason", reason)

	s.runEffects(ctx, failed.ID, []effect{s.publishEffect(failed, events.OrderFailed)})

	return true, nil
}

func (s *Service) Status(ctx context.Context, orderID string) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("order")
		}
		return nil, err
	}
	return o, nil
}

func (s *Service) GatewayStatus(
	ctx context.Context,
	orderID string,
) (*gateway.TransactionStatus, error) {
	st, err := s.gateway.Status(ctx, orderID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("transaction")
		}
		s.logger.Error("gateway status failed", "order_id", orderID, "error", err)
		return nil, core.GatewayError("Failed to fetch transaction status")
	}
	return st, nil
}

// MockComplete finishes a mock checkout by feeding a correctly signed
// notification through the webhook path.
func (s *Service) MockComplete(ctx context.Context, orderID, status string) (*order.Order, error) {
	mock, ok := s.gateway.(*gateway.Mock)
	if !ok {
		return nil, core.ForbiddenError("Mock payments are disabled")
	}

	switch status {
	case "":
		status = "settlement"
	case "settlement", "capture", "expire", "cancel":
	default:
		return nil, core.ValidationError("status must be one of: settlement capture expire cancel")
	}

	o, err := s.Status(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.HandleNotification(ctx, mock.Notify(o.ID, o.Amount, status)); err != nil {
		return nil, err
	}

	return s.Status(ctx, o.ID)
}

func (s *Service) alert(ctx context.Context, text string) {
	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.effectTimeout)
	defer cancel()

	if err := s.notifier.Alert(alertCtx, text); err != nil {
		s.logger.Warn("admin alert failed", "error", err)
	}
}

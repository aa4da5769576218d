// AngelaMos | 2026
// effects.go

package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/events"
	"github.com/carterperez-dev/ea-marketplace/internal/license"
	"github.com/carterperez-dev/ea-marketplace/internal/notify"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
	"github.com/carterperez-dev/ea-marketplace/internal/product"
)

const (
	effectLicensePersist = "license.persist"
	effectNotifyUser     = "notify.user"
	effectDeliverFile    = "deliver.file"
	effectNotifyAdmin    = "notify.admin"
	effectEventsPublish  = "events.publish"
)

// effect is a post-commit side effect. Effects never roll back the order
// transition and a failing effect does not stop the ones after it.
type effect struct {
	name string
	run  func(ctx context.Context) error
}

type effectResult struct {
	Name string
	Err  error
}

func (s *Service) runEffects(ctx context.Context, orderID string, effects []effect) []effectResult {
	base := context.WithoutCancel(ctx)
	results := make([]effectResult, 0, len(effects))

	for _, e := range effects {
		err := s.runEffect(base, e)
		results = append(results, effectResult{Name: e.name, Err: err})

		if err == nil {
			s.logger.Debug("effect done", "order_id", orderID, "effect", e.name)
			continue
		}

		s.logger.Error("effect failed",
			"order_id", orderID,
			"effect", e.name,
			"error", err,
		)
		if e.name != effectNotifyAdmin {
			s.alert(base, fmt.Sprintf("Order %s: %s failed: %v", orderID, e.name, err))
		}
	}

	return results
}

func (s *Service) runEffect(ctx context.Context, e effect) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.effectTimeout)
	defer cancel()

	ctx, span := core.StartSpan(ctx, "effect "+e.name)
	defer func() { core.EndSpan(span, err) }()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return e.run(ctx)
}

// delivery memoizes the lookups shared by the user-facing effects.
type delivery struct {
	s     *Service
	order *order.Order

	chatID   string
	chatErr  error
	chatDone bool

	product     *product.Product
	productErr  error
	productDone bool
}

func (d *delivery) chat(ctx context.Context) (string, error) {
	if !d.chatDone {
		d.chatID, d.chatErr = d.s.users.TelegramChatID(ctx, d.order.UserID)
		if d.chatErr != nil && isNotFound(d.chatErr) {
			d.chatID, d.chatErr = "", nil
		}
		d.chatDone = true
	}
	return d.chatID, d.chatErr
}

func (d *delivery) resolveProduct(ctx context.Context) (*product.Product, error) {
	if !d.productDone {
		d.product, d.productErr = d.s.products.Get(ctx, d.order.ProductID)
		d.productDone = true
	}
	return d.product, d.productErr
}

func (d *delivery) productName(ctx context.Context) string {
	if p, err := d.resolveProduct(ctx); err == nil {
		return p.Name
	}
	return d.order.ProductID
}

func (s *Service) completionEffects(o *order.Order) []effect {
	d := &delivery{s: s, order: o}

	return []effect{
		{
			name: effectLicensePersist,
			run: func(ctx context.Context) error {
				return s.licenses.Create(ctx, &license.License{
					ID:         uuid.NewString(),
					UserID:     o.UserID,
					ProductID:  o.ProductID,
					OrderID:    o.ID,
					LicenseKey: o.LicenseKey,
					Status:     license.StatusActive,
				})
			},
		},
		{
			name: effectNotifyUser,
			run: func(ctx context.Context) error {
				chatID, err := d.chat(ctx)
				if err != nil {
					return err
				}
				if chatID == "" {
					s.logger.Info("purchaser has no telegram id, delivery skipped",
						"order_id", o.ID,
					)
					return nil
				}
				return s.notifier.NotifyUserPaymentSuccess(ctx, chatID, notify.OrderSummary{
					OrderID:     o.ID,
					ProductName: d.productName(ctx),
					Amount:      o.Amount,
				}, o.LicenseKey)
			},
		},
		{
			name: effectDeliverFile,
			run: func(ctx context.Context) error {
				chatID, err := d.chat(ctx)
				if err != nil || chatID == "" {
					return err
				}

				p, err := d.resolveProduct(ctx)
				if err != nil {
					return fmt.Errorf("resolve product %s: %w", o.ProductID, err)
				}
				if strings.TrimSpace(p.CompiledPath) == "" {
					return fmt.Errorf("product %s has no compiled file: %w", p.ID, core.ErrNotFound)
				}

				return s.notifier.SendFile(ctx, chatID, p.CompiledPath,
					notify.FileCaption(p.Name, o.LicenseKey))
			},
		},
		s.publishEffect(o, events.OrderCompleted),
	}
}

func (s *Service) publishEffect(o *order.Order, eventType string) effect {
	return effect{
		name: effectEventsPublish,
		run: func(ctx context.Context) error {
			return s.publisher.Publish(ctx, events.OrderEvent{
				Type:       eventType,
				OrderID:    o.ID,
				UserID:     o.UserID,
				ProductID:  o.ProductID,
				Amount:     o.Amount,
				Status:     o.Status,
				PaymentID:  o.PaymentID,
				OccurredAt: s.now().UTC(),
			})
		},
	}
}

// AngelaMos | 2026
// notifier.go

package notify

import (
	"context"
	"log/slog"
)

// Notifier pushes text and file messages to purchasers and to the admin
// channel. Chat ids are Telegram numeric ids or @channel usernames.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
	SendFile(ctx context.Context, chatID, filePath, caption string) error
	NotifyAdminNewOrder(ctx context.Context, summary OrderSummary) error
	NotifyUserPaymentSuccess(ctx context.Context, chatID string, summary OrderSummary, licenseKey string) error
	Alert(ctx context.Context, text string) error
}

type OrderSummary struct {
	OrderID       string
	CustomerName  string
	CustomerEmail string
	ProductName   string
	Amount        int64
}

// Nop is used when no bot token is configured.
type Nop struct {
	logger *slog.Logger
}

func NewNop(logger *slog.Logger) *Nop {
	return &Nop{logger: logger}
}

func (n *Nop) SendMessage(_ context.Context, chatID, _ string) error {
	n.logger.Debug("telegram disabled, message dropped", "chat_id", chatID)
	return nil
}

func (n *Nop) SendFile(_ context.Context, chatID, filePath, _ string) error {
	n.logger.Debug("telegram disabled, file dropped", "chat_id", chatID, "path", filePath)
	return nil
}

func (n *Nop) NotifyAdminNewOrder(_ context.Context, summary OrderSummary) error {
	n.logger.Debug("telegram disabled, admin notice dropped", "order_id", summary.OrderID)
	return nil
}

func (n *Nop) NotifyUserPaymentSuccess(
	_ context.Context,
	chatID string,
	summary OrderSummary,
	_ string,
) error {
	n.logger.Debug("telegram disabled, payment notice dropped",
		"order_id", summary.OrderID,
		"chat_id", chatID,
	)
	return nil
}

func (n *Nop) Alert(_ context.Context, text string) error {
	n.logger.Debug("telegram disabled, alert dropped", "text", text)
	return nil
}

var (
	_ Notifier = (*Nop)(nil)
	_ Notifier = (*Telegram)(nil)
)

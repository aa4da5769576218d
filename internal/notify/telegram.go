// AngelaMos | 2026
// telegram.go

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

const defaultCaption = "Your EA file is ready! 🚀"

// Bot is the subset of *tgbotapi.BotAPI the notifier and webhook use.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetMe() (tgbotapi.User, error)
	GetWebhookInfo() (tgbotapi.WebhookInfo, error)
}

type Telegram struct {
	bot         Bot
	adminChatID string
	logger      *slog.Logger
	now         func() time.Time
}

func NewTelegram(bot Bot, adminChatID string, logger *slog.Logger) *Telegram {
	return &Telegram{
		bot:         bot,
		adminChatID: adminChatID,
		logger:      logger,
		now:         time.Now,
	}
}

// Connect authenticates the token against the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return bot, nil
}

func (t *Telegram) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook: %w", err)
	}
	if _, err := t.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

func (t *Telegram) WebhookInfo() (tgbotapi.WebhookInfo, error) {
	return t.bot.GetWebhookInfo()
}

func (t *Telegram) Me() (tgbotapi.User, error) {
	return t.bot.GetMe()
}

func (t *Telegram) SendMessage(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newMessage(chatID, text)
	if err != nil {
		return err
	}
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (t *Telegram) SendFile(ctx context.Context, chatID, filePath, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("send file %q: %w", filePath, core.ErrNotFound)
	}

	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	if caption == "" {
		caption = defaultCaption
	}

	doc := tgbotapi.NewDocument(id, tgbotapi.FilePath(filePath))
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.bot.Send(doc); err != nil {
		return fmt.Errorf("send file: %w", err)
	}
	return nil
}

func (t *Telegram) NotifyAdminNewOrder(ctx context.Context, s OrderSummary) error {
	if t.adminChatID == "" {
		return nil
	}

	text := fmt.Sprintf(`🔔 *New Order Received!*

📋 Order ID: `+"`%s`"+`
👤 Customer: %s
📧 Email: %s
🎯 Product: %s
💰 Amount: Rp %s
⏰ Time: %s`,
		s.OrderID,
		escape(s.CustomerName),
		escape(s.CustomerEmail),
		escape(s.ProductName),
		FormatRupiah(s.Amount),
		t.now().Format("2/1/2006, 15.04.05"),
	)

	return t.SendMessage(ctx, t.adminChatID, text)
}

func (t *Telegram) NotifyUserPaymentSuccess(
	ctx context.Context,
	chatID string,
	s OrderSummary,
	licenseKey string,
) error {
	text := fmt.Sprintf(`✅ *Payment Successful!*

🎉 Thank you for your purchase!

📋 Order ID: `+"`%s`"+`
🎯 Product: %s
🔑 License Key: `+"`%s`"+`

Your EA file will be sent to you shortly. Please wait for the compilation process to complete.

💬 If you have any questions, contact our support team.`,
		s.OrderID,
		escape(s.ProductName),
		licenseKey,
	)

	return t.SendMessage(ctx, chatID, text)
}

// Alert forwards an operator-facing failure to the admin channel.
func (t *Telegram) Alert(ctx context.Context, text string) error {
	if t.adminChatID == "" {
		return nil
	}
	return t.SendMessage(ctx, t.adminChatID, "⚠️ "+escape(text))
}

func FileCaption(productName, licenseKey string) string {
	return fmt.Sprintf(`🎯 *%s*
🔑 License Key: `+"`%s`"+`

✅ Installation Instructions:
1. Copy the .ex5 file to your MetaTrader 5/MQL5/Experts folder
2. Restart MetaTrader 5
3. The EA will appear in your Expert Advisors list

💡 Support: Contact us if you need help!`,
		escape(productName),
		licenseKey,
	)
}

// FormatRupiah groups thousands with dots, as id-ID locale does.
func FormatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func newMessage(chatID, text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(chatID, "@") {
		return tgbotapi.NewMessageToChannel(chatID, text), nil
	}

	id, err := parseChatID(chatID)
	if err != nil {
		return tgbotapi.MessageConfig{}, err
	}
	return tgbotapi.NewMessage(id, text), nil
}

var errInvalidChatID = errors.New("invalid chat id")

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", errInvalidChatID, chatID, core.ErrInvalidInput)
	}
	return id, nil
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

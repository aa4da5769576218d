// AngelaMos | 2026
// handler.go

package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

const (
	startText = `🚀 *Welcome to MQL5 EA Marketplace!*

I'm your bot for receiving EA files after purchase.

📝 *Commands:*
• /start - Show this welcome message
• /help - Get help
• /status - Check your account status

💳 To purchase an EA, visit our website and complete your order. You'll receive your EA file directly here!`

	helpText = `🆘 *Help & Support*

📞 *Contact Support:*
• Email: support@mql5marketplace.com
• Telegram: @mql5support

🔧 *Common Issues:*
• EA not received after payment? Check your Telegram ID is correct
• Installation problems? Follow the instructions sent with your EA
• License key issues? Contact support with your order ID

💡 *Installation Guide:*
1. Download the .ex5 file sent to you
2. Copy it to: MetaTrader 5/MQL5/Experts/
3. Restart MetaTrader 5
4. Find your EA in the Navigator panel`

	statusTextFormat = `📊 *Your Account Status*

🆔 Telegram ID: ` + "`%d`" + `
✅ Bot Status: Active

To check your orders and licenses, please visit our website dashboard.`

	unknownText = "❓ Unknown command. Use /help to see available commands."
)

// Handler serves the bot command webhook and bot introspection. A nil
// Telegram means no token is configured.
type Handler struct {
	tg     *Telegram
	logger *slog.Logger
}

func NewHandler(tg *Telegram, logger *slog.Logger) *Handler {
	return &Handler{tg: tg, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/telegram", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Post("/webhook", h.Webhook)
	})
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/telegram", func(r chi.Router) {
		r.Post("/send-test", h.SendTest)
		r.Get("/webhook-info", h.WebhookInfo)
	})
}

func (h *Handler) disabled(w http.ResponseWriter) bool {
	if h.tg != nil {
		return false
	}
	core.JSON(w, http.StatusServiceUnavailable, map[string]any{
		"success": false,
		"message": "Telegram bot is not configured",
	})
	return true
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.disabled(w) {
		return
	}

	me, err := h.tg.Me()
	if err != nil {
		h.fail(w, err)
		return
	}

	core.OK(w, map[string]any{
		"success": true,
		"bot": map[string]any{
			"id":       me.ID,
			"name":     me.FirstName,
			"username": me.UserName,
			"is_bot":   me.IsBot,
		},
		"message": "Bot is active and ready",
	})
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.disabled(w) {
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		core.BadRequest(w, "Invalid update payload")
		return
	}

	if update.Message != nil {
		chatID := update.Message.Chat.ID
		text := replyFor(update.Message)

		err := h.tg.SendMessage(r.Context(), strconv.FormatInt(chatID, 10), text)
		if err != nil {
			h.logger.Error("telegram command reply failed",
				"chat_id", chatID,
				"error", err,
			)
			h.fail(w, err)
			return
		}
	}

	core.OK(w, map[string]any{"success": true})
}

func replyFor(msg *tgbotapi.Message) string {
	if !msg.IsCommand() {
		return unknownText
	}

	switch msg.Command() {
	case "start":
		return startText
	case "help":
		return helpText
	case "status":
		return fmt.Sprintf(statusTextFormat, msg.Chat.ID)
	default:
		return unknownText
	}
}

type sendTestRequest struct {
	TelegramID string `json:"telegram_id"`
	Message    string `json:"message"`
}

func (h *Handler) SendTest(w http.ResponseWriter, r *http.Request) {
	if h.disabled(w) {
		return
	}

	var req sendTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.TelegramID == "" || req.Message == "" {
		core.BadRequest(w, "telegram_id and message are required")
		return
	}

	if err := h.tg.SendMessage(r.Context(), req.TelegramID, req.Message); err != nil {
		h.fail(w, err)
		return
	}

	core.OK(w, map[string]any{
		"success": true,
		"message": "Test message sent successfully",
	})
}

func (h *Handler) WebhookInfo(w http.ResponseWriter, r *http.Request) {
	if h.disabled(w) {
		return
	}

	info, err := h.tg.WebhookInfo()
	if err != nil {
		h.fail(w, err)
		return
	}

	core.OK(w, map[string]any{
		"success":              true,
		"url":                  info.URL,
		"pending_update_count": info.PendingUpdateCount,
		"last_error_message":   info.LastErrorMessage,
	})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	core.JSON(w, core.StatusFromError(err), map[string]any{
		"success": false,
		"message": err.Error(),
	})
}

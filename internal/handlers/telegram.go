package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"

	"github.com/omnireplyhq/omnireply/internal/message"
)

// TelegramHandler receives Telegram webhook updates and answers them
// inline. The webhook response IS the outbound message: Telegram
// executes the method embedded in the HTTP reply, so no bot token is
// needed on this path.
type TelegramHandler struct {
	responder Responder
	logger    *slog.Logger
}

// NewTelegramHandler creates a TelegramHandler.
func NewTelegramHandler(log *slog.Logger, responder Responder) *TelegramHandler {
	return &TelegramHandler{
		responder: responder,
		logger:    log.With(slog.String("handler", "telegram")),
	}
}

// Register registers the webhook route. The route is excluded from JWT
// auth; the tenant is bound at webhook registration time via the path.
func (h *TelegramHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/telegram/:tenant_id", h.HandleUpdate)
}

// webhookReply is the inline-answer form Telegram accepts as a webhook
// response body.
type webhookReply struct {
	Method string `json:"method"`
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// HandleUpdate normalizes one Telegram update and runs it through the
// pipeline. Updates without message text (edits, callbacks, joins) are
// acknowledged and dropped.
func (h *TelegramHandler) HandleUpdate(c echo.Context) error {
	tenantID, err := strconv.ParseInt(strings.TrimSpace(c.Param("tenant_id")), 10, 64)
	if err != nil || tenantID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}
	if h.responder == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "responder not configured")
	}

	var update tgbotapi.Update
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return c.NoContent(http.StatusOK)
	}

	msg := message.NormalizedMessage{
		Channel:   message.ChannelTelegram,
		UserID:    strconv.FormatInt(update.Message.From.ID, 10),
		Text:      update.Message.Text,
		Timestamp: time.Unix(int64(update.Message.Date), 0).UTC(),
	}

	reply := h.responder.Process(c.Request().Context(), tenantID, msg)
	return c.JSON(http.StatusOK, webhookReply{
		Method: "sendMessage",
		ChatID: update.Message.Chat.ID,
		Text:   reply,
	})
}

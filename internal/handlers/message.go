package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/omnireplyhq/omnireply/internal/auth"
	"github.com/omnireplyhq/omnireply/internal/message"
)

// Responder turns one normalized message into one reply. The pipeline
// orchestrator satisfies it.
type Responder interface {
	Process(ctx context.Context, tenantID int64, msg message.NormalizedMessage) string
}

// MessageResponse is the reply envelope returned to channel adapters.
type MessageResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageHandler handles the authenticated message API.
type MessageHandler struct {
	responder Responder
	logger    *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(log *slog.Logger, responder Responder) *MessageHandler {
	return &MessageHandler{
		responder: responder,
		logger:    log.With(slog.String("handler", "message")),
	}
}

// Register registers the message routes.
func (h *MessageHandler) Register(e *echo.Echo) {
	e.POST("/api/messages", h.HandleMessage)
}

// HandleMessage accepts one inbound message for the authenticated
// tenant and returns the pipeline's reply. The tenant id comes from the
// token only; a tenant id in the body is ignored.
func (h *MessageHandler) HandleMessage(c echo.Context) error {
	tenantID, err := auth.TenantIDFromContext(c)
	if err != nil {
		return err
	}
	if h.responder == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "responder not configured")
	}

	var msg message.NormalizedMessage
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	reply := h.responder.Process(c.Request().Context(), tenantID, msg)
	return c.JSON(http.StatusOK, MessageResponse{Reply: reply})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookContext(t *testing.T, tenantParam, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram/"+tenantParam, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenant_id")
	c.SetParamValues(tenantParam)
	return c, rec
}

func TestHandleUpdateAnswersInline(t *testing.T) {
	body := `{
		"update_id": 1001,
		"message": {
			"message_id": 5,
			"date": 1700000000,
			"text": "hello",
			"from": {"id": 987654, "is_bot": false, "first_name": "Ana"},
			"chat": {"id": 123456, "type": "private"}
		}
	}`
	c, rec := newWebhookContext(t, "42", body)

	responder := &fakeResponder{reply: "Hello! 👋 Welcome! How can I assist you today?"}
	h := NewTelegramHandler(testLogger(), responder)

	require.NoError(t, h.HandleUpdate(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var reply webhookReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "sendMessage", reply.Method)
	assert.Equal(t, int64(123456), reply.ChatID)
	assert.Equal(t, responder.reply, reply.Text)

	assert.Equal(t, int64(42), responder.gotTenant)
	assert.Equal(t, "telegram", responder.gotMsg.Channel)
	assert.Equal(t, "987654", responder.gotMsg.UserID)
	assert.Equal(t, "hello", responder.gotMsg.Text)
}

func TestHandleUpdateDropsNonMessageUpdates(t *testing.T) {
	c, rec := newWebhookContext(t, "42", `{"update_id": 1002}`)

	responder := &fakeResponder{reply: "unused"}
	h := NewTelegramHandler(testLogger(), responder)

	require.NoError(t, h.HandleUpdate(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, responder.calls)
}

func TestHandleUpdateRejectsBadTenant(t *testing.T) {
	c, _ := newWebhookContext(t, "not-a-number", `{"update_id": 1003}`)

	h := NewTelegramHandler(testLogger(), &fakeResponder{})

	err := h.HandleUpdate(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

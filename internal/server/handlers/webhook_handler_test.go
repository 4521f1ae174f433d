package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	service "github.com/mamadbah2/waterbill/internal/service/whatsapp"
)

type stubMessaging struct {
	sendErr    error
	webhookErr error
	received   []models.WebhookPayload
}

func (s *stubMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if token != "secret" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (s *stubMessaging) HandleWebhook(_ context.Context, payload models.WebhookPayload) error {
	s.received = append(s.received, payload)
	return s.webhookErr
}

func (s *stubMessaging) SendOutbound(context.Context, models.OutboundMessageRequest) error {
	return s.sendErr
}

func webhookEngine(svc service.MessagingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(svc, nil)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookVerify(t *testing.T) {
	r := webhookEngine(&stubMessaging{})

	rec := serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=42", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())

	rec = serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=42", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookReceive(t *testing.T) {
	svc := &stubMessaging{}
	r := webhookEngine(svc)

	rec := serve(r, http.MethodPost, "/webhook", `{"object":"whatsapp_business_account","entry":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.received, 1)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/webhook", `{`).Code)

	svc.webhookErr = errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodPost, "/webhook", `{}`).Code)
}

func TestSendMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		code int
	}{
		{name: "sent", body: `{"to":"9180","message":"hi"}`, code: http.StatusAccepted},
		{name: "missing message", body: `{"to":"9180"}`, code: http.StatusBadRequest},
		{name: "disabled", err: service.ErrMessagingDisabled, body: `{"to":"9180","message":"hi"}`, code: http.StatusServiceUnavailable},
		{name: "upstream failure", err: errors.New("rate limited"), body: `{"to":"9180","message":"hi"}`, code: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := webhookEngine(&stubMessaging{sendErr: tt.err})
			assert.Equal(t, tt.code, serve(r, http.MethodPost, "/send-message", tt.body).Code)
		})
	}
}

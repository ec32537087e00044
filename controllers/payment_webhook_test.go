package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cod-verifier/config"
	"cod-verifier/controllers"
	"cod-verifier/models"
	"cod-verifier/repository"
	"cod-verifier/routes"
	"cod-verifier/services"
)

const webhookSecret = "whsec_test"

type countingRefunder struct {
	calls int32
}

func (f *countingRefunder) Refund(paymentID string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return "rfnd_" + paymentID, nil
}

type nopPublisher struct{}

func (nopPublisher) SendVerificationEvent(models.VerificationEvent) error { return nil }

func newTestServer(t *testing.T) (*gin.Engine, *services.Resolver, *countingRefunder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		TestMode:          true,
		OTPRequired:       true,
		TokenRequired:     true,
		TokenAmount:       100,
		TokenCurrency:     "INR",
		OTPCooldown:       30 * time.Second,
		OTPExpiry:         5 * time.Minute,
		SessionTTL:        5 * time.Minute,
		NonceSecret:       "nonce_secret",
		RazorpayKeySecret: "key_secret",
		WebhookSecret:     webhookSecret,
	}

	sessions := repository.NewMemorySessionStore(cfg.SessionTTL)
	intents := repository.NewMemoryIntentRepo()
	sig := services.NewSignatureVerifier()
	logger := zap.NewNop()

	otpSvc := services.NewOTPService(sessions, nil, logger, cfg.OTPCooldown, cfg.OTPExpiry, cfg.TestMode, cfg.RegionAllowed)
	refunder := &countingRefunder{}
	resolver := services.NewResolver(intents, refunder, otpSvc, nopPublisher{}, sig, cfg.RazorpayKeySecret, logger)

	vc := &controllers.VerificationController{
		Config:   cfg,
		OTP:      otpSvc,
		Gateway:  services.NewRazorpayService("", "", cfg.TokenAmount, cfg.TokenCurrency),
		Resolver: resolver,
		Sig:      sig,
		Logger:   logger,
	}

	r := gin.New()
	routes.RegisterVerificationRoutes(r, vc)
	return r, resolver, refunder
}

func registerTestIntent(t *testing.T, resolver *services.Resolver, intentID string) {
	t.Helper()
	err := resolver.Register(context.Background(), &models.PaymentIntent{
		IntentID: intentID,
		OrderRef: "ref-" + intentID,
		Amount:   100,
		Currency: "INR",
	})
	require.NoError(t, err)
}

func capturedEventBody(t *testing.T, event, intentID, paymentID string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       paymentID,
					"order_id": intentID,
					"notes":    map[string]string{"cod_order_ref": "ref-" + intentID},
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookCaptureEndToEnd(t *testing.T) {
	r, resolver, refunder := newTestServer(t)
	registerTestIntent(t, resolver, "order_W1")

	body := capturedEventBody(t, "payment.captured", "order_W1", "pay_w1")
	signature := services.NewSignatureVerifier().Sign(body, webhookSecret)

	w := postWebhook(r, body, signature)
	assert.Equal(t, http.StatusOK, w.Code)

	intent, err := resolver.Status(context.Background(), "order_W1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentCaptured, intent.Status)
	require.NotNil(t, intent.RefundID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refunder.calls))

	// Duplicate delivery: acknowledged, no second refund.
	w = postWebhook(r, body, signature)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refunder.calls))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r, resolver, refunder := newTestServer(t)
	registerTestIntent(t, resolver, "order_W2")

	body := capturedEventBody(t, "payment.captured", "order_W2", "pay_w2")

	t.Run("missing header", func(t *testing.T) {
		w := postWebhook(r, body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("signature over different payload", func(t *testing.T) {
		other := capturedEventBody(t, "payment.captured", "order_other", "pay_other")
		w := postWebhook(r, body, services.NewSignatureVerifier().Sign(other, webhookSecret))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	intent, err := resolver.Status(context.Background(), "order_W2")
	require.NoError(t, err)
	assert.Equal(t, models.IntentCreated, intent.Status, "rejected webhooks must not move the intent")
	assert.Zero(t, atomic.LoadInt32(&refunder.calls))
}

func TestWebhookIgnoredEventsStillAcknowledged(t *testing.T) {
	r, _, _ := newTestServer(t)

	t.Run("unknown intent", func(t *testing.T) {
		body := capturedEventBody(t, "payment.captured", "order_missing", "pay_x")
		w := postWebhook(r, body, services.NewSignatureVerifier().Sign(body, webhookSecret))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unhandled event type", func(t *testing.T) {
		body := capturedEventBody(t, "refund.processed", "order_missing", "pay_x")
		w := postWebhook(r, body, services.NewSignatureVerifier().Sign(body, webhookSecret))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed json with valid signature", func(t *testing.T) {
		body := []byte("{not json")
		w := postWebhook(r, body, services.NewSignatureVerifier().Sign(body, webhookSecret))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestWebhookFailureEvent(t *testing.T) {
	r, resolver, refunder := newTestServer(t)
	registerTestIntent(t, resolver, "order_W3")

	body := capturedEventBody(t, "payment.failed", "order_W3", "pay_w3")
	w := postWebhook(r, body, services.NewSignatureVerifier().Sign(body, webhookSecret))
	assert.Equal(t, http.StatusOK, w.Code)

	intent, err := resolver.Status(context.Background(), "order_W3")
	require.NoError(t, err)
	assert.Equal(t, models.IntentFailed, intent.Status)
	assert.Zero(t, atomic.LoadInt32(&refunder.calls))
}

func TestWebhookCorrelatesThroughOrderRefNotes(t *testing.T) {
	r, resolver, refunder := newTestServer(t)
	registerTestIntent(t, resolver, "order_W4")

	// The gateway order id is absent; the notes carry the correlation.
	body, err := json.Marshal(map[string]interface{}{
		"event": "payment.captured",
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":    "pay_w4",
					"notes": map[string]string{"cod_order_ref": "ref-order_W4"},
				},
			},
		},
	})
	require.NoError(t, err)

	w := postWebhook(r, body, services.NewSignatureVerifier().Sign(body, webhookSecret))
	assert.Equal(t, http.StatusOK, w.Code)

	intent, lookupErr := resolver.Status(context.Background(), "order_W4")
	require.NoError(t, lookupErr)
	assert.Equal(t, models.IntentCaptured, intent.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refunder.calls))
}

func TestAmount100CaptureScenario(t *testing.T) {
	r, resolver, refunder := newTestServer(t)

	// Intent created for the fixed 100 minor units.
	require.NoError(t, resolver.Register(context.Background(), &models.PaymentIntent{
		IntentID:  "order_W5",
		OrderRef:  "ref-order_W5",
		SessionID: "sess_W5",
		Amount:    100,
		Currency:  "INR",
	}))

	body := capturedEventBody(t, "payment.captured", "order_W5", "pay_w5")
	signature := services.NewSignatureVerifier().Sign(body, webhookSecret)

	for i := 0; i < 2; i++ {
		w := postWebhook(r, body, signature)
		assert.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("delivery %d", i+1))
	}

	intent, err := resolver.Status(context.Background(), "order_W5")
	require.NoError(t, err)
	assert.Equal(t, models.IntentCaptured, intent.Status)
	assert.Equal(t, 100, intent.Amount)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refunder.calls))
}

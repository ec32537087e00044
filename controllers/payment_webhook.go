package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cod-verifier/repository"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

// webhookEvent is the slice of the gateway payload this service cares
// about: the event name, the payment entity, and the correlation notes.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// RazorpayWebhook receives gateway push events. The header signature is
// verified over the raw body; a mismatch is the only 400. Everything else
// — unknown events, unknown intents, even internal errors — is
// acknowledged with 200 to satisfy at-least-once delivery without a retry
// storm.
func (vc *VerificationController) RazorpayWebhook(c *gin.Context) {
	// An escaped panic must not leave the gateway unacknowledged.
	defer func() {
		if rec := recover(); rec != nil {
			vc.Logger.Error("Webhook processing panic", zap.Any("panic", rec))
			c.JSON(http.StatusOK, gin.H{"status": "received"})
		}
	}()

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	if vc.Config.WebhookSecret != "" || !vc.Config.TestMode {
		signature := c.GetHeader(webhookSignatureHeader)
		if !vc.Sig.Verify(payload, vc.Config.WebhookSecret, signature) {
			vc.Logger.Warn("Webhook signature verification failed",
				zap.Int("payload_bytes", len(payload)),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
			return
		}
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		vc.Logger.Warn("Malformed webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	switch event.Event {
	case "payment.captured":
		vc.handleWebhookCapture(c, event)
	case "payment.failed":
		vc.handleWebhookFailure(c, event)
	default:
		vc.Logger.Info("Ignoring webhook event", zap.String("event", event.Event))
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// resolveWebhookIntent correlates a gateway event back to an intent: the
// gateway order id is the intent id; the notes carry the checkout order
// reference as a fallback. Nothing browser-supplied is trusted here.
func (vc *VerificationController) resolveWebhookIntent(c *gin.Context, event webhookEvent) (string, bool) {
	entity := event.Payload.Payment.Entity

	if entity.OrderID != "" {
		if _, err := vc.Resolver.Status(c.Request.Context(), entity.OrderID); err == nil {
			return entity.OrderID, true
		}
	}

	if orderRef := entity.Notes["cod_order_ref"]; orderRef != "" {
		if intent, err := vc.Resolver.StatusByOrderRef(c.Request.Context(), orderRef); err == nil {
			return intent.IntentID, true
		}
	}

	vc.Logger.Warn("Webhook event does not correlate to any intent",
		zap.String("event", event.Event),
		zap.String("payment_id", entity.ID),
		zap.String("gateway_order_id", entity.OrderID),
	)
	return "", false
}

func (vc *VerificationController) handleWebhookCapture(c *gin.Context, event webhookEvent) {
	intentID, ok := vc.resolveWebhookIntent(c, event)
	if !ok {
		return
	}

	intent, err := vc.Resolver.ResolveWebhookCapture(c.Request.Context(), intentID, event.Payload.Payment.Entity.ID)
	if err != nil {
		if err == repository.ErrIntentNotFound {
			return
		}
		vc.Logger.Error("Webhook capture failed",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
		return
	}

	vc.Logger.Info("Webhook capture processed",
		zap.String("intent_id", intent.IntentID),
		zap.String("status", string(intent.Status)),
	)
}

func (vc *VerificationController) handleWebhookFailure(c *gin.Context, event webhookEvent) {
	intentID, ok := vc.resolveWebhookIntent(c, event)
	if !ok {
		return
	}

	intent, err := vc.Resolver.ResolveWebhookFailure(c.Request.Context(), intentID, event.Payload.Payment.Entity.ID)
	if err != nil {
		if err == repository.ErrIntentNotFound {
			return
		}
		vc.Logger.Error("Webhook failure event not applied",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
		return
	}

	vc.Logger.Info("Webhook failure processed",
		zap.String("intent_id", intent.IntentID),
		zap.String("status", string(intent.Status)),
	)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cod-verifier/middleware"
	"cod-verifier/models"
	"cod-verifier/repository"
	"cod-verifier/services"
)

// CreatePaymentIntent asks the gateway for a token order and registers the
// intent with the resolver. Gateway failure leaves no partial state: the
// intent is only registered after the gateway accepted the order.
func (vc *VerificationController) CreatePaymentIntent(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	// Body is optional prefill hints.
	_ = c.ShouldBindJSON(&req)

	sessionID := middleware.GetSessionID(c)
	ctx := c.Request.Context()

	hints := services.CustomerHints{Name: req.Name, Email: req.Email}
	if session, err := vc.OTP.Session(ctx, sessionID); err == nil && session != nil {
		hints.Phone = session.Phone
	}

	orderRef := uuid.NewString()

	var intentID string
	if vc.Config.TestMode {
		intentID = services.TestOrderID()
	} else {
		if vc.Config.RazorpayKeyID == "" || vc.Config.RazorpayKeySecret == "" {
			vc.respondError(c, &models.ConfigurationError{Message: "razorpay credentials not configured"})
			return
		}
		id, err := vc.Gateway.CreateTokenOrder(orderRef, hints)
		if err != nil {
			vc.respondError(c, err)
			return
		}
		intentID = id
	}

	intent := &models.PaymentIntent{
		IntentID:  intentID,
		OrderRef:  orderRef,
		SessionID: sessionID,
		Amount:    vc.Config.TokenAmount,
		Currency:  vc.Config.TokenCurrency,
	}
	if err := vc.Resolver.Register(ctx, intent); err != nil {
		vc.Logger.Error("Failed to register payment intent",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
		vc.respondError(c, err)
		return
	}

	// The checkout UI opens as a direct consequence of this response.
	if err := vc.Resolver.MarkAwaiting(ctx, intentID); err != nil {
		vc.Logger.Warn("Failed to mark intent awaiting", zap.String("intent_id", intentID), zap.Error(err))
	}

	keyID := vc.Gateway.KeyID
	if vc.Config.TestMode {
		keyID = "rzp_test_key"
	}

	c.JSON(http.StatusOK, gin.H{
		"intent_id": intentID,
		"amount":    intent.Amount,
		"currency":  intent.Currency,
		"key_id":    keyID,
		"customer":  hints,
		"test_mode": vc.Config.TestMode,
	})
}

// CheckPaymentStatus is the poll path: a stateless read of the resolver's
// current status. Terminal statuses tell the client to stop polling.
func (vc *VerificationController) CheckPaymentStatus(c *gin.Context) {
	intentID := c.Query("intent_id")
	if intentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intent_id is required"})
		return
	}

	intent, err := vc.Resolver.Status(c.Request.Context(), intentID)
	if err != nil {
		if err == repository.ErrIntentNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment intent"})
			return
		}
		vc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       intent.Status,
		"stop_polling": intent.Status.Terminal(),
		"gate":         vc.gateFor(c, middleware.GetSessionID(c)),
	})
}

// ConfirmPaymentCallback is the browser-reported confirmation path. The
// resolver recomputes the gateway signature; in test mode the expected
// signature is self-issued so the flow exercises the same code path.
func (vc *VerificationController) ConfirmPaymentCallback(c *gin.Context) {
	var req struct {
		PaymentID string `json:"payment_id" binding:"required"`
		OrderID   string `json:"order_id" binding:"required"`
		Signature string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !vc.Config.TestMode && vc.Config.RazorpayKeySecret == "" {
		vc.respondError(c, &models.ConfigurationError{Message: "razorpay key secret not configured"})
		return
	}

	signature := req.Signature
	if vc.Config.TestMode {
		signature = vc.Sig.Sign([]byte(req.OrderID+"|"+req.PaymentID), vc.Config.RazorpayKeySecret)
	}

	intent, err := vc.Resolver.ResolveCallback(c.Request.Context(), req.PaymentID, req.OrderID, signature)
	if err != nil {
		vc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "payment verified, token refund will be processed automatically",
		"status":  intent.Status,
		"gate":    vc.gateFor(c, middleware.GetSessionID(c)),
	})
}

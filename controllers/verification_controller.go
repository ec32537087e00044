package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cod-verifier/config"
	"cod-verifier/middleware"
	"cod-verifier/models"
	"cod-verifier/services"
)

type VerificationController struct {
	Config   *config.Config
	OTP      *services.OTPService
	Gateway  *services.RazorpayService
	Resolver *services.Resolver
	Sig      *services.SignatureVerifier
	Logger   *zap.Logger
}

// StartSession issues (or refreshes) the verification session cookie and
// returns the anti-forgery nonce the client must echo on every
// state-changing call, plus the enabled verification features.
func (vc *VerificationController) StartSession(c *gin.Context) {
	sessionID, err := c.Cookie(middleware.CookieName)
	if err != nil || sessionID == "" {
		sessionID = uuid.NewString()
		// The cookie outlives the verification TTL so a retried checkout
		// keeps its session id; the stored state still expires on its own.
		c.SetCookie(middleware.CookieName, sessionID, 3600, "/", "", false, true)
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":     sessionID,
		"nonce":          vc.Sig.Sign([]byte(sessionID), vc.Config.NonceSecret),
		"otp_required":   vc.Config.OTPRequired,
		"token_required": vc.Config.TokenRequired,
	})
}

// gateFor recomputes the checkout gate from the session's current state.
func (vc *VerificationController) gateFor(c *gin.Context, sessionID string) models.GateState {
	session, err := vc.OTP.Session(c.Request.Context(), sessionID)
	if err != nil {
		vc.Logger.Warn("Failed to load session for gate evaluation", zap.Error(err))
		session = nil
	}
	return services.EvaluateGate(vc.Config.OTPRequired, vc.Config.TokenRequired, session)
}

// respondError maps the error taxonomy onto HTTP responses. Signature
// details and provider responses stay in the logs, never in the body.
func (vc *VerificationController) respondError(c *gin.Context, err error) {
	var rateErr *models.RateLimitError
	var valErr *models.ValidationError
	var cfgErr *models.ConfigurationError
	var gwErr *models.GatewayError
	var sigErr *models.SignatureError

	switch {
	case errors.As(err, &rateErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":             rateErr.Error(),
			"seconds_remaining": rateErr.SecondsRemaining,
		})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
	case errors.As(err, &cfgErr):
		vc.Logger.Error("Verification configuration error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "verification service is not configured, please contact the site administrator",
		})
	case errors.As(err, &gwErr):
		vc.Logger.Error("Provider request failed",
			zap.String("provider", gwErr.Provider),
			zap.Error(gwErr.Err),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "provider temporarily unavailable, please try again",
			"retryable": true,
		})
	case errors.As(err, &sigErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment verification failed"})
	default:
		vc.Logger.Error("Unexpected verification error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
	}
}

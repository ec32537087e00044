package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cod-verifier/controllers"
	"cod-verifier/middleware"
)

func RegisterVerificationRoutes(r *gin.Engine, vc *controllers.VerificationController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	verification := r.Group("/verification")
	verification.Use(middleware.RateLimitMiddleware())

	verification.GET("/session", vc.StartSession)

	// State-changing endpoints require the per-session anti-forgery nonce.
	guarded := verification.Group("")
	guarded.Use(middleware.NonceMiddleware(vc.Config.NonceSecret, vc.Sig))
	guarded.POST("/otp/send", vc.SendOTP)
	guarded.POST("/otp/verify", vc.VerifyOTP)
	guarded.POST("/payment/intent", vc.CreatePaymentIntent)
	guarded.GET("/payment/status", vc.CheckPaymentStatus)
	guarded.POST("/payment/callback", vc.ConfirmPaymentCallback)

	// Gateway webhook: no nonce, authenticated by its header signature.
	r.POST("/webhooks/razorpay", vc.RazorpayWebhook)
}

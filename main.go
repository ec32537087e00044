package main

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cod-verifier/config"
	"cod-verifier/controllers"
	"cod-verifier/database"
	"cod-verifier/kafka"
	"cod-verifier/models"
	"cod-verifier/repository"
	"cod-verifier/routes"
	"cod-verifier/sender"
	"cod-verifier/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("[CODVerifier] ❌ Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("[CODVerifier] ❌ Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Storage. Test mode runs fully in-process; production uses Redis for
	// sessions and Postgres for intents.
	var sessions repository.SessionStore
	var intents repository.IntentRepository
	var sms sender.SMSSender

	if cfg.TestMode {
		log.Println("[CODVerifier] ⚠️ Test mode enabled: in-memory stores, no SMS, simulated gateway")
		sessions = repository.NewMemorySessionStore(cfg.SessionTTL)
		intents = repository.NewMemoryIntentRepo()
	} else {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal("[CODVerifier] ❌ Failed to connect to Redis:", err)
		}
		sessions = repository.NewRedisSessionStore(redisClient, cfg.SessionTTL)

		db, err := database.ConnectPostgres(cfg.PostgresDSN, logger, &models.PaymentIntent{})
		if err != nil {
			log.Fatal("[CODVerifier] ❌ Failed to connect to DB:", err)
		}
		intents = repository.NewGormIntentRepo(db)

		sms, err = sender.NewTwilioSender(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFromNumber)
		if err != nil {
			log.Fatal("[CODVerifier] ❌ Failed to initialize Twilio sender:", err)
		}
	}

	producer := kafka.NewVerificationEventProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
	defer producer.Close()

	gateway := services.NewRazorpayService(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.TokenAmount, cfg.TokenCurrency)
	sig := services.NewSignatureVerifier()

	otpSvc := services.NewOTPService(sessions, sms, logger, cfg.OTPCooldown, cfg.OTPExpiry, cfg.TestMode, cfg.RegionAllowed)

	var refunds services.RefundInitiator = gateway
	if cfg.TestMode {
		refunds = noopRefunder{}
	}

	resolver := services.NewResolver(intents, refunds, otpSvc, producer, sig, cfg.RazorpayKeySecret, logger)

	r := gin.New()
	r.Use(gin.Recovery())

	vc := &controllers.VerificationController{
		Config:   cfg,
		OTP:      otpSvc,
		Gateway:  gateway,
		Resolver: resolver,
		Sig:      sig,
		Logger:   logger,
	}
	routes.RegisterVerificationRoutes(r, vc)

	log.Println("[CODVerifier] ✅ Running on port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[CODVerifier] ❌ Server failed:", err)
	}
}

// noopRefunder stands in for the gateway refund API in test mode, where
// nothing was actually charged.
type noopRefunder struct{}

func (noopRefunder) Refund(paymentID string) (string, error) {
	return "rfnd_test_" + paymentID, nil
}

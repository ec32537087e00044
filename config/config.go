package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"cod-verifier/models"
)

type Config struct {
	Port              string
	PostgresDSN       string
	RedisURL          string
	KafkaBrokers      string
	KafkaTopic        string
	RazorpayKeyID     string
	RazorpayKeySecret string
	WebhookSecret     string
	NonceSecret       string
	TwilioSID         string
	TwilioToken       string
	TwilioFromNumber  string

	TestMode       bool
	OTPRequired    bool
	TokenRequired  bool
	AllowedRegions []models.Region // empty means all supported regions

	TokenAmount   int // minor units, fixed per checkout attempt
	TokenCurrency string
	OTPCooldown   time.Duration
	OTPExpiry     time.Duration
	SessionTTL    time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8091"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		RedisURL:          getEnv("REDIS_URL", "redis://redis:6379"),
		KafkaBrokers:      getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "cod.verification.events"),
		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		WebhookSecret:     os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		NonceSecret:       os.Getenv("NONCE_SECRET"),
		TwilioSID:         os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:       os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:  os.Getenv("TWILIO_FROM_NUMBER"),
		TestMode:          getBool("COD_TEST_MODE", true),
		OTPRequired:       getBool("COD_OTP_REQUIRED", true),
		TokenRequired:     getBool("COD_TOKEN_REQUIRED", true),
		TokenAmount:       100,
		TokenCurrency:     "INR",
		OTPCooldown:       getDuration("OTP_COOLDOWN", 30*time.Second),
		OTPExpiry:         getDuration("OTP_EXPIRY", 5*time.Minute),
		SessionTTL:        getDuration("SESSION_TTL", 5*time.Minute),
	}

	if regions := os.Getenv("COD_ALLOWED_REGIONS"); regions != "" && regions != "global" {
		region, ok := models.ParseRegion(regions)
		if !ok {
			return nil, fmt.Errorf("invalid COD_ALLOWED_REGIONS %q", regions)
		}
		cfg.AllowedRegions = []models.Region{region}
	}

	if cfg.NonceSecret == "" {
		return nil, fmt.Errorf("NONCE_SECRET is required")
	}

	// Test mode is an explicit switch. Missing provider credentials in
	// production mode is a configuration error, not an implied downgrade.
	if !cfg.TestMode {
		if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" || cfg.WebhookSecret == "" {
			return nil, fmt.Errorf("missing required Razorpay environment variables")
		}
		if cfg.TwilioSID == "" || cfg.TwilioToken == "" || cfg.TwilioFromNumber == "" {
			return nil, fmt.Errorf("missing required Twilio environment variables")
		}
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required")
		}
	}

	return cfg, nil
}

// RegionAllowed applies the allowed-regions policy.
func (c *Config) RegionAllowed(r models.Region) bool {
	if len(c.AllowedRegions) == 0 {
		return true
	}
	for _, allowed := range c.AllowedRegions {
		if allowed == r {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

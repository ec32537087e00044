package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"cod-verifier/models"
	"cod-verifier/repository"
	"cod-verifier/sender"
)

// Distinct verification outcomes. Pointer identity makes them usable with
// errors.Is; messages never echo the stored code.
var (
	ErrCodeNotFound = &models.ValidationError{Message: "no verification code found, request a new code"}
	ErrCodeExpired  = &models.ValidationError{Message: "verification code expired, request a new code"}
	ErrCodeMismatch = &models.ValidationError{Message: "invalid verification code"}
)

// OTPService issues and verifies one-time codes against the session store
// and dispatches them over SMS.
type OTPService struct {
	store    repository.SessionStore
	sms      sender.SMSSender
	logger   *zap.Logger
	cooldown time.Duration
	expiry   time.Duration
	testMode bool
	allowed  func(models.Region) bool
	now      func() time.Time
}

func NewOTPService(
	store repository.SessionStore,
	sms sender.SMSSender,
	logger *zap.Logger,
	cooldown, expiry time.Duration,
	testMode bool,
	allowed func(models.Region) bool,
) *OTPService {
	return &OTPService{
		store:    store,
		sms:      sms,
		logger:   logger,
		cooldown: cooldown,
		expiry:   expiry,
		testMode: testMode,
		allowed:  allowed,
		now:      time.Now,
	}
}

// IssueResult is the outcome of a successful code issuance. Code is only
// populated in test mode, where no SMS is dispatched.
type IssueResult struct {
	Message  string
	Code     string
	TestMode bool
}

// IssueCode validates the phone against its region pattern, enforces the
// cooldown, stores a fresh uniformly random 6-digit code and dispatches it.
// At most one SMS leaves per call; a send failure leaves the prior session
// state untouched.
func (s *OTPService) IssueCode(ctx context.Context, sessionID, phone string, region models.Region) (*IssueResult, error) {
	rule, ok := region.Rule()
	if !ok {
		return nil, &models.ValidationError{Message: "unsupported country code"}
	}
	if !s.allowed(region) {
		return nil, &models.ValidationError{
			Message: fmt.Sprintf("only %s phone numbers (%s) are allowed", rule.Name, rule.DialCode),
		}
	}
	if !region.ValidPhone(phone) {
		return nil, &models.ValidationError{
			Message: fmt.Sprintf("please enter a valid %s phone number (e.g. %s)", rule.Name, rule.Example),
		}
	}

	existing, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if existing != nil && existing.HasCode() {
		if elapsed := now.Sub(existing.IssuedAt); elapsed < s.cooldown {
			return nil, &models.RateLimitError{
				SecondsRemaining: int((s.cooldown - elapsed).Seconds()),
			}
		}
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	session := &models.VerificationSession{
		Phone:    phone,
		Region:   region,
		Code:     code,
		IssuedAt: now,
		Verified: false,
	}
	if existing != nil {
		session.TokenPaid = existing.TokenPaid
	}

	if s.testMode {
		if err := s.store.Save(ctx, sessionID, session); err != nil {
			return nil, err
		}
		return &IssueResult{
			Message:  "verification code sent (test mode)",
			Code:     code,
			TestMode: true,
		}, nil
	}

	msg := fmt.Sprintf("Your COD verification code is: %s. Valid for %d minutes. Do not share this code.",
		code, int(s.expiry.Minutes()))
	if _, err := s.sms.SendSMS(ctx, phone, msg); err != nil {
		s.logger.Error("Failed to dispatch verification SMS",
			zap.String("region", string(region)),
			zap.Error(err),
		)
		return nil, &models.GatewayError{Provider: "twilio", Err: err}
	}

	if err := s.store.Save(ctx, sessionID, session); err != nil {
		return nil, err
	}

	return &IssueResult{Message: "verification code sent to your mobile number"}, nil
}

// VerifyCode checks the supplied code against the stored one. Expiry
// clears the stored code; a mismatch leaves it in place without revealing
// it.
func (s *OTPService) VerifyCode(ctx context.Context, sessionID, code string) error {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.HasCode() {
		return ErrCodeNotFound
	}

	if s.now().Sub(session.IssuedAt) > s.expiry {
		session.Code = ""
		if err := s.store.Save(ctx, sessionID, session); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	if code != session.Code {
		return ErrCodeMismatch
	}

	session.Verified = true
	return s.store.Save(ctx, sessionID, session)
}

// MarkTokenPaid flips the session's token-paid flag after a captured
// transition, creating the session when none exists yet (the token step
// is independent of the OTP step). Intents without a session are ignored:
// capture can arrive after the session expired and must still win.
func (s *OTPService) MarkTokenPaid(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		session = &models.VerificationSession{}
	}
	session.TokenPaid = true
	return s.store.Save(ctx, sessionID, session)
}

// Session exposes the stored verification state for gate evaluation.
func (s *OTPService) Session(ctx context.Context, sessionID string) (*models.VerificationSession, error) {
	return s.store.Get(ctx, sessionID)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

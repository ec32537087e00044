package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cod-verifier/kafka"
	"cod-verifier/models"
	"cod-verifier/repository"
)

// RefundInitiator issues the token refund. The resolver guarantees it is
// invoked at most once per intent.
type RefundInitiator interface {
	Refund(paymentID string) (string, error)
}

// SessionMarker flips the customer's token-paid flag on capture.
type SessionMarker interface {
	MarkTokenPaid(ctx context.Context, sessionID string) error
}

// Resolver is the single writer of PaymentIntent.Status. Three producers
// feed it — the browser callback, the gateway webhook and the status poll —
// and it converges them onto one terminal state with exactly one refund.
//
// Every transition is a check-then-set under a lock scoped to the intent
// id, so duplicate webhook deliveries and a callback racing a webhook for
// the same intent collapse to one winner; losers are acknowledged as
// no-ops.
type Resolver struct {
	repo     repository.IntentRepository
	refunds  RefundInitiator
	sessions SessionMarker
	events   kafka.EventPublisher
	sig      *SignatureVerifier
	secret   string // gateway key secret, signs orderID|paymentID
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewResolver(
	repo repository.IntentRepository,
	refunds RefundInitiator,
	sessions SessionMarker,
	events kafka.EventPublisher,
	sig *SignatureVerifier,
	secret string,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		repo:     repo,
		refunds:  refunds,
		sessions: sessions,
		events:   events,
		sig:      sig,
		secret:   secret,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// intentLock returns the mutex guarding all transitions for one intent id.
func (r *Resolver) intentLock(intentID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[intentID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[intentID] = l
	}
	return l
}

// Register records a freshly created intent in the Created state.
func (r *Resolver) Register(ctx context.Context, intent *models.PaymentIntent) error {
	intent.Status = models.IntentCreated
	return r.repo.Create(ctx, intent)
}

// MarkAwaiting advances Created → AwaitingConfirmation when the payment UI
// session starts. A no-op for any later state.
func (r *Resolver) MarkAwaiting(ctx context.Context, intentID string) error {
	lock := r.intentLock(intentID)
	lock.Lock()
	defer lock.Unlock()

	intent, err := r.repo.GetByID(ctx, intentID)
	if err != nil {
		return err
	}
	if intent.Status != models.IntentCreated {
		return nil
	}
	intent.Status = models.IntentAwaiting
	return r.repo.Update(ctx, intent)
}

// Status is the poll path: a pure read, never a write.
func (r *Resolver) Status(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	return r.repo.GetByID(ctx, intentID)
}

// StatusByOrderRef reads an intent through its checkout order reference,
// the correlation embedded at intent-creation time.
func (r *Resolver) StatusByOrderRef(ctx context.Context, orderRef string) (*models.PaymentIntent, error) {
	return r.repo.GetByOrderRef(ctx, orderRef)
}

// ResolveCallback handles the browser-reported confirmation. The expected
// signature is recomputed over orderID|paymentID with the gateway key
// secret; a mismatch is logged as a security event and mutates nothing —
// in particular it never downgrades an intent another path already
// captured.
func (r *Resolver) ResolveCallback(ctx context.Context, paymentID, orderID, signature string) (*models.PaymentIntent, error) {
	message := []byte(orderID + "|" + paymentID)
	if !r.sig.Verify(message, r.secret, signature) {
		r.logger.Warn("Callback signature verification failed",
			zap.String("payment_id", paymentID),
			zap.String("intent_id", orderID),
		)
		return nil, &models.SignatureError{PaymentID: paymentID}
	}

	return r.capture(ctx, orderID, paymentID, false)
}

// ResolveWebhookCapture handles a verified payment.captured event. The
// webhook is the sole authority for the externally visible order record:
// it publishes the captured event exactly once, even when the status
// transition itself was already won by the callback path.
func (r *Resolver) ResolveWebhookCapture(ctx context.Context, intentID, paymentID string) (*models.PaymentIntent, error) {
	return r.capture(ctx, intentID, paymentID, true)
}

// ResolveWebhookFailure handles an explicit payment.failed or
// checkout-cancel event. Absence of a webhook is never treated as failure;
// only this explicit signal sets Failed.
func (r *Resolver) ResolveWebhookFailure(ctx context.Context, intentID, paymentID string) (*models.PaymentIntent, error) {
	lock := r.intentLock(intentID)
	lock.Lock()
	defer lock.Unlock()

	intent, err := r.repo.GetByID(ctx, intentID)
	if err != nil {
		return nil, err
	}

	if intent.Status.Terminal() {
		r.logger.Info("Skipping failure event for terminal intent",
			zap.String("intent_id", intentID),
			zap.String("status", string(intent.Status)),
		)
		return intent, nil
	}

	now := r.now()
	intent.Status = models.IntentFailed
	intent.FailedAt = &now
	if paymentID != "" {
		intent.PaymentID = &paymentID
	}
	if err := r.repo.Update(ctx, intent); err != nil {
		return nil, err
	}

	r.publish("payment_failed", intent)
	intent.OrderNotifiedAt = &now
	if err := r.repo.Update(ctx, intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// capture attempts the transition into Captured. The winning caller — and
// only the winning caller — triggers the refund and the session flag. The
// intent lock is held across the refund call; it only serializes duplicate
// deliveries of the same intent.
func (r *Resolver) capture(ctx context.Context, intentID, paymentID string, fromWebhook bool) (*models.PaymentIntent, error) {
	lock := r.intentLock(intentID)
	lock.Lock()
	defer lock.Unlock()

	intent, err := r.repo.GetByID(ctx, intentID)
	if err != nil {
		return nil, err
	}

	switch {
	case intent.Status == models.IntentCaptured:
		// Duplicate delivery or the losing side of a race: acknowledged
		// as a no-op, never surfaced as an error.
		r.logger.Info("Skipping duplicate capture",
			zap.String("intent_id", intentID),
			zap.String("payment_id", paymentID),
		)
	case intent.Status == models.IntentFailed:
		r.logger.Info("Ignoring capture for failed intent",
			zap.String("intent_id", intentID),
			zap.String("payment_id", paymentID),
		)
		return intent, nil
	default:
		now := r.now()
		intent.Status = models.IntentCaptured
		intent.CapturedAt = &now
		intent.PaymentID = &paymentID
		if err := r.repo.Update(ctx, intent); err != nil {
			return nil, err
		}
		r.runCaptureEffects(ctx, intent)
	}

	if fromWebhook && intent.OrderNotifiedAt == nil {
		r.publish("payment_captured", intent)
		now := r.now()
		intent.OrderNotifiedAt = &now
		if err := r.repo.Update(ctx, intent); err != nil {
			return nil, err
		}
	}

	return intent, nil
}

// runCaptureEffects performs the winning transition's side effects: one
// refund and the session flag. The refund is a courtesy — a gateway error
// is logged and the payment still counts as captured.
func (r *Resolver) runCaptureEffects(ctx context.Context, intent *models.PaymentIntent) {
	refundID, err := r.refunds.Refund(*intent.PaymentID)
	if err != nil {
		r.logger.Error("Token refund failed, payment remains captured",
			zap.String("intent_id", intent.IntentID),
			zap.String("payment_id", *intent.PaymentID),
			zap.Error(err),
		)
	} else {
		intent.RefundID = &refundID
		if err := r.repo.Update(ctx, intent); err != nil {
			r.logger.Error("Failed to persist refund id",
				zap.String("intent_id", intent.IntentID),
				zap.Error(err),
			)
		}
	}

	if err := r.sessions.MarkTokenPaid(ctx, intent.SessionID); err != nil {
		r.logger.Error("Failed to mark session token-paid",
			zap.String("intent_id", intent.IntentID),
			zap.Error(err),
		)
	}
}

func (r *Resolver) publish(eventType string, intent *models.PaymentIntent) {
	event := models.VerificationEvent{
		Type:      eventType,
		IntentID:  intent.IntentID,
		OrderRef:  intent.OrderRef,
		Amount:    intent.Amount,
		Currency:  intent.Currency,
		Timestamp: r.now().UTC(),
	}
	if intent.PaymentID != nil {
		event.PaymentID = *intent.PaymentID
	}
	if intent.RefundID != nil {
		event.RefundID = *intent.RefundID
	}

	if err := r.events.SendVerificationEvent(event); err != nil {
		r.logger.Error("Failed to publish verification event",
			zap.String("event_type", eventType),
			zap.String("order_ref", intent.OrderRef),
			zap.Error(err),
		)
	}
}

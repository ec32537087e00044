package models

import "time"

// VerificationEvent is the message published to Kafka when a token
// payment reaches a terminal state. Downstream consumers (order record,
// notifications) key on OrderRef.
type VerificationEvent struct {
	Type      string    `json:"type"` // "payment_captured" or "payment_failed"
	IntentID  string    `json:"intent_id"`
	OrderRef  string    `json:"order_ref"`
	PaymentID string    `json:"payment_id,omitempty"`
	RefundID  string    `json:"refund_id,omitempty"`
	Amount    int       `json:"amount"`    // minor units
	Currency  string    `json:"currency"`  // "INR"
	Timestamp time.Time `json:"timestamp"` // UTC event time
}

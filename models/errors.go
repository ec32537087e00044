package models

import "fmt"

// ValidationError covers bad phone or code input. Returned to the user,
// no side effect.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RateLimitError means the issuance cooldown has not elapsed.
type RateLimitError struct {
	SecondsRemaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", e.SecondsRemaining)
}

// ConfigurationError means required provider credentials are missing.
// Fatal to the operation; the user is told to contact the administrator,
// never silently downgraded to test behavior.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// GatewayError is a network or API failure talking to the SMS or payment
// provider. Retryable; no partial state change.
type GatewayError struct {
	Provider string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// SignatureError is a callback or webhook signature mismatch. Rejected and
// logged as a potential tampering attempt; never weakens an already
// captured intent. Details stay server-side.
type SignatureError struct {
	PaymentID string
}

func (e *SignatureError) Error() string {
	return "signature verification failed"
}

// StateConflictError is a transition attempted on a terminal intent.
// Swallowed as a no-op, never surfaced as a user error.
type StateConflictError struct {
	IntentID string
	Status   IntentStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("intent %s already %s", e.IntentID, e.Status)
}

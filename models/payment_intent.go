package models

import (
	"time"

	"gorm.io/gorm"
)

// IntentStatus is the lifecycle state of a token payment intent.
// Captured and Failed are terminal: once set, no further transition
// is accepted.
type IntentStatus string

const (
	IntentCreated  IntentStatus = "created"
	IntentAwaiting IntentStatus = "awaiting_confirmation"
	IntentCaptured IntentStatus = "captured"
	IntentFailed   IntentStatus = "failed"
)

// TerminalStatuses is the set of states that end an intent's life.
var TerminalStatuses = map[IntentStatus]bool{
	IntentCaptured: true,
	IntentFailed:   true,
}

// Terminal reports whether s accepts no further transitions.
func (s IntentStatus) Terminal() bool {
	return TerminalStatuses[s]
}

// PaymentIntent is one token payment attempt correlated with one checkout
// order. The Confirmation Resolver is the single writer of Status; every
// other component only reads it.
type PaymentIntent struct {
	IntentID        string       `gorm:"type:varchar(64);primaryKey" json:"intent_id"`
	OrderRef        string       `gorm:"type:varchar(64);index;not null" json:"order_ref"`
	SessionID       string       `gorm:"type:varchar(64);index" json:"session_id"`
	Amount          int          `gorm:"not null" json:"amount"` // minor units
	Currency        string       `gorm:"type:varchar(10);not null" json:"currency"`
	Status          IntentStatus `gorm:"type:varchar(32);not null" json:"status"`
	PaymentID       *string      `gorm:"type:varchar(64);uniqueIndex" json:"payment_id,omitempty"`
	RefundID        *string      `gorm:"type:varchar(64)" json:"refund_id,omitempty"`
	CapturedAt      *time.Time   `json:"captured_at,omitempty"`
	FailedAt        *time.Time   `json:"failed_at,omitempty"`
	OrderNotifiedAt *time.Time   `json:"order_notified_at,omitempty"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

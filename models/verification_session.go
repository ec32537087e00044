package models

import "time"

// VerificationSession is the short-lived per-customer verification state,
// stored as JSON under the customer's session id with a TTL.
//
// At most one unexpired code is active at a time: a new issuance
// overwrites the prior code and clears Verified.
type VerificationSession struct {
	Phone     string    `json:"phone"` // E.164
	Region    Region    `json:"region"`
	Code      string    `json:"code,omitempty"` // 6 digits
	IssuedAt  time.Time `json:"issued_at"`
	Verified  bool      `json:"verified"`
	TokenPaid bool      `json:"token_paid"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCode reports whether a code has been issued and not cleared.
func (s *VerificationSession) HasCode() bool {
	return s != nil && s.Code != ""
}

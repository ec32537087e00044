package models

// GateState is the derived (never stored) checkout gate: the enabled
// verification features crossed with what the customer has completed.
type GateState struct {
	OTPRequired   bool `json:"otp_required"`
	TokenRequired bool `json:"token_required"`
	OTPVerified   bool `json:"otp_verified"`
	TokenPaid     bool `json:"token_paid"`
}

// CanPlaceOrder is the gate formula: every enabled verification must be
// satisfied; disabled ones never block.
func (g GateState) CanPlaceOrder() bool {
	return (!g.OTPRequired || g.OTPVerified) && (!g.TokenRequired || g.TokenPaid)
}

package services

import "cod-verifier/models"

// EvaluateGate combines the enabled verification features with what the
// session and intent state show as completed. Pure; recomputed on every
// relevant change.
func EvaluateGate(otpRequired, tokenRequired bool, session *models.VerificationSession) models.GateState {
	gate := models.GateState{
		OTPRequired:   otpRequired,
		TokenRequired: tokenRequired,
	}
	if session != nil {
		gate.OTPVerified = session.Verified
		gate.TokenPaid = session.TokenPaid
	}
	return gate
}

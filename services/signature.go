package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// DigestFunc computes a keyed digest over a message. Injected into the
// SignatureVerifier so the resolver never touches a crypto primitive
// directly.
type DigestFunc func(message, secret []byte) []byte

func hmacSHA256(message, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}

// SignatureVerifier checks gateway signatures: a hex-encoded keyed digest
// over a message, compared in constant time.
type SignatureVerifier struct {
	digest DigestFunc
}

func NewSignatureVerifier() *SignatureVerifier {
	return &SignatureVerifier{digest: hmacSHA256}
}

// NewSignatureVerifierWithDigest swaps the digest implementation.
func NewSignatureVerifierWithDigest(fn DigestFunc) *SignatureVerifier {
	return &SignatureVerifier{digest: fn}
}

// Sign returns the hex digest of message under secret.
func (v *SignatureVerifier) Sign(message []byte, secret string) string {
	return hex.EncodeToString(v.digest(message, []byte(secret)))
}

// Verify reports whether providedHex matches the digest of message under
// secret. An undecodable signature fails verification rather than erroring.
func (v *SignatureVerifier) Verify(message []byte, secret, providedHex string) bool {
	provided, err := hex.DecodeString(providedHex)
	if err != nil {
		return false
	}
	expected := v.digest(message, []byte(secret))
	return hmac.Equal(expected, provided)
}

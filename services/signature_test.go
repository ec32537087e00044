package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRoundTrip(t *testing.T) {
	v := NewSignatureVerifier()
	message := []byte("order_abc|pay_xyz")

	signature := v.Sign(message, "secret")
	assert.True(t, v.Verify(message, "secret", signature))
}

func TestVerifyRejectsTampering(t *testing.T) {
	v := NewSignatureVerifier()
	message := []byte(`{"event":"payment.captured","amount":100}`)
	signature := v.Sign(message, "secret")

	t.Run("altered payload", func(t *testing.T) {
		altered := []byte(`{"event":"payment.captured","amount":101}`)
		assert.False(t, v.Verify(altered, "secret", signature))
	})

	t.Run("altered signature byte", func(t *testing.T) {
		tampered := []byte(signature)
		if tampered[0] == 'a' {
			tampered[0] = 'b'
		} else {
			tampered[0] = 'a'
		}
		assert.False(t, v.Verify(message, "secret", string(tampered)))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, v.Verify(message, "other", signature))
	})

	t.Run("undecodable signature", func(t *testing.T) {
		assert.False(t, v.Verify(message, "secret", "not-hex!"))
	})

	t.Run("empty signature", func(t *testing.T) {
		assert.False(t, v.Verify(message, "secret", ""))
	})
}

func TestInjectedDigest(t *testing.T) {
	// The digest is an injected capability; a custom one must flow through.
	constant := func(message, secret []byte) []byte { return []byte{0x01, 0x02} }
	v := NewSignatureVerifierWithDigest(constant)

	require.Equal(t, "0102", v.Sign([]byte("anything"), "secret"))
	assert.True(t, v.Verify([]byte("anything"), "secret", "0102"))
	assert.False(t, v.Verify([]byte("anything"), "secret", "0103"))
}

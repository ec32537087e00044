package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cod-verifier/services"
)

const (
	// SessionKey is the gin context key holding the verified session id.
	SessionKey = "codSessionID"
	// CookieName carries the customer's verification session id.
	CookieName = "cod_session"
	// NonceHeader carries the per-session anti-forgery token.
	NonceHeader = "X-COD-Nonce"
)

// NonceMiddleware requires a session cookie plus a matching anti-forgery
// token (keyed digest of the session id). State-changing verification
// endpoints all sit behind it; the gateway webhook does not, it has its
// own signature.
func NonceMiddleware(secret string, sig *services.SignatureVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(CookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "verification session required"})
			return
		}

		nonce := c.GetHeader(NonceHeader)
		if nonce == "" || !sig.Verify([]byte(sessionID), secret, nonce) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "security check failed"})
			return
		}

		c.Set(SessionKey, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session id set by NonceMiddleware.
func GetSessionID(c *gin.Context) string {
	if val, exists := c.Get(SessionKey); exists {
		return val.(string)
	}
	return ""
}

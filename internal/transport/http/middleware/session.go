package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookieName      = "chat_session"
	ContextSessionTokenKey = "session_token"

	sessionCookieMaxAge = 30 * 24 * 60 * 60 // 30 days
)

// ChatSession resolves the browser's opaque session token from a cookie,
// minting one on first contact, and passes it down the handler chain
// explicitly. The token only correlates requests; the session row itself is
// created lazily on the first message.
func ChatSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			token = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, token, sessionCookieMaxAge, "/", "", false, true)
		}
		c.Set(ContextSessionTokenKey, token)
		c.Next()
	}
}

// SessionToken returns the token placed by ChatSession.
func SessionToken(c *gin.Context) (string, bool) {
	raw, exists := c.Get(ContextSessionTokenKey)
	if !exists {
		return "", false
	}
	token, ok := raw.(string)
	return token, ok && token != ""
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"olive-chat-server/internal/pkg/sessiontoken"
)

const ContextUserIDKey = "user_id"

const cookieMaxAge = 365 * 24 * 60 * 60

// Session establishes the stable per-browser opaque user identifier: a
// signed cookie minted on first contact and reused afterwards. It is the
// sole tenant key for history and image ownership. Handlers read the id from
// the gin context and thread it as an explicit parameter into the service.
func Session(secret, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if raw, err := c.Cookie(cookieName); err == nil {
			if userID, parseErr := sessiontoken.Parse(secret, raw); parseErr == nil {
				c.Set(ContextUserIDKey, userID)
				c.Next()
				return
			}
		}

		userID := uuid.NewString()
		signed, err := sessiontoken.Sign(secret, userID)
		if err != nil {
			// The request still proceeds with a fresh id; only cookie reuse
			// across requests is lost.
			logger.Error("sign session token failed", zap.Error(err))
		} else {
			c.SetCookie(cookieName, signed, cookieMaxAge, "/", "", false, true)
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserID extracts the session identity set by Session.
func UserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}

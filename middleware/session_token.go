package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkoutlens/api/models"
	"checkoutlens/api/utils"
)

// SessionClaimsKey is where the validated session claims land in the gin
// context.
const SessionClaimsKey = "session_claims"

// SessionTokenRequired guards the tracking ingest. Every track call must
// carry the per-session anti-forgery token issued by the session handshake;
// failures answer with the track envelope so client beacons never retry on a
// generic error page.
func SessionTokenRequired(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("X-Session-Token")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.TrackResponse{
				Success: false,
				Message: "missing session token",
			})
			return
		}

		claims, err := utils.ValidateSessionToken(tokenString)
		if err != nil {
			log.Debug("SessionTokenRequired: invalid token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.TrackResponse{
				Success: false,
				Message: "invalid session token",
			})
			return
		}

		c.Set(SessionClaimsKey, claims)
		c.Next()
	}
}

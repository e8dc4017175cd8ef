package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDHeader carries the authenticated account holder, set by the edge proxy
	UserIDHeader = "X-User-ID"
	// AdminIDHeader carries the authenticated administrator
	AdminIDHeader = "X-Admin-ID"

	actorIDKey = "actor_id"
)

// RequireActor rejects requests whose header does not hold a valid UUID. Authentication
// happens upstream; this only reads the identity it forwards.
func RequireActor(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := uuid.Parse(c.GetHeader(header))
		if err != nil || actorID == uuid.Nil {
			response := gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "missing or invalid " + header + " header",
				},
			}
			if correlationID := GetCorrelationID(c); correlationID != "" {
				response["correlation_id"] = correlationID
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response)
			return
		}

		c.Set(actorIDKey, actorID)
		c.Next()
	}
}

// ActorID returns the identity accepted by RequireActor
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(actorIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

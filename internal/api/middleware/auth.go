package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mpiyush15/pixels-official-sub001/internal/auth"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
)

const (
	// ContextKeyActorID holds the signed-in actor id in the gin context.
	ContextKeyActorID = "actorID"
	// ContextKeyActorKind holds the signed-in actor kind in the gin context.
	ContextKeyActorKind = "actorKind"
)

// AuthMiddleware verifies the session token from the Authorization header, or from the
// staff session cookie when no header is sent.
func AuthMiddleware(jwtSecret, staffCookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok && staffCookie != "" {
			if cookie, err := c.Cookie(staffCookie); err == nil && cookie != "" {
				tokenString, ok = cookie, true
			}
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required"})
			return
		}

		claims, err := auth.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			GetLoggerFromContext(c).Info("rejected session token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired session"})
			return
		}

		c.Set(ContextKeyActorID, claims.ActorID)
		c.Set(ContextKeyActorKind, claims.ActorKind)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

// RequireActorKind lets only the given actor kinds through. Assumes AuthMiddleware runs first.
func RequireActorKind(kinds ...models.ActorKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind := ActorKind(c)
		for _, k := range kinds {
			if kind == k {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Not permitted for this account"})
	}
}

// ActorID returns the signed-in actor id, or "" when unauthenticated.
func ActorID(c *gin.Context) string {
	return c.GetString(ContextKeyActorID)
}

// ActorKind returns the signed-in actor kind, or "" when unauthenticated.
func ActorKind(c *gin.Context) models.ActorKind {
	v, ok := c.Get(ContextKeyActorKind)
	if !ok {
		return ""
	}
	kind, _ := v.(models.ActorKind)
	return kind
}

package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ailahq/safecheck/internal/domain/user"
)

// PrincipalResolver turns the current session pointer into a user.
// Keep this small interface so tests can fake it easily.
type PrincipalResolver interface {
	Current(ctx context.Context) (user.User, error)
}

type Principal struct {
	identity PrincipalResolver
}

func NewPrincipal(identity PrincipalResolver) *Principal {
	return &Principal{identity: identity}
}

// RequireUser resolves the signed-in user and stashes their identity
// on the request context. Handlers then pass the explicit user id into
// every service call; nothing downstream reads ambient session state.
func (p *Principal) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := p.identity.Current(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Sign in first",
				},
			})
			return
		}

		c.Set(ctxUserIDKey, u.ID)
		c.Set(ctxIsAdminKey, u.IsAdmin)

		c.Next()
	}
}

// RequireAdmin gates a route on the admin flag. The identity service
// re-checks the flag on every admin operation; this is just the early
// 403 at the edge.
func (p *Principal) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, ok := IsAdminFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}
		if !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Admin role required",
				},
			})
			return
		}
		c.Next()
	}
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func IsAdminFromContext(c *gin.Context) (bool, bool) {
	v, ok := c.Get(ctxIsAdminKey)
	if !ok {
		return false, false
	}
	isAdmin, ok := v.(bool)
	return isAdmin, ok
}

package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/contentgate/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (auth.Identity, error)
}

type AuthMiddleware struct {
	authn Authenticator
}

func NewAuthMiddleware(authn Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authn: authn}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			msg := "Invalid session"
			if errors.Is(err, auth.ErrMissingBearer) {
				msg = "Missing bearer token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		// Stash identity on the context
		c.Set(CtxUserID, id.ID)
		c.Set(CtxEmail, id.Email)

		c.Next()
	}
}

// Optional helpers so handlers don’t need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func EmailFromContext(c *gin.Context) string {
	return c.GetString(CtxEmail)
}

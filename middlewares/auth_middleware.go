// middlewares/auth_middleware.go
package middlewares

import (
	"errors"
	"net/http"
	"time"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

// Authenticate resolves the caller with the configured strategy and rejects
// the request with 401 when that fails.
func Authenticate(authn services.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := authn.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authFailure(err), "timestamp": time.Now()})
			return
		}
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// OptionalAuth attaches the caller when credentials are valid and otherwise
// lets the request through anonymously.
func OptionalAuth(authn services.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, err := authn.Authenticate(c.Request); err == nil {
			c.Set(IdentityKey, identity)
		}
		c.Next()
	}
}

// RequireRoles must run after Authenticate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "timestamp": time.Now()})
			return
		}
		if _, ok := allowed[identity.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "insufficient permissions",
				"required":  roles,
				"role":      identity.Role,
				"timestamp": time.Now(),
			})
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (*services.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*services.Identity)
	return identity, ok && identity != nil
}

func authFailure(err error) string {
	switch {
	case errors.Is(err, services.ErrMissingCredentials):
		return "access token required"
	case errors.Is(err, services.ErrTokenExpired):
		return "token expired"
	default:
		return "invalid token"
	}
}

package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"campus/internal/apperr"
)

const claimsKey = "claims"

// Authenticate parses a bearer token when one is present. Requests without a usable token
// (missing, malformed, expired or forged) continue anonymously; RequireRole rejects them
// where a role is needed.
func Authenticate(s Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			if claims, err := s.ParseAccess(strings.TrimSpace(authz[len("bearer "):])); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// RequireRole rejects anonymous callers with 401 and callers of another role with 403.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		switch {
		case !ok:
			abort(c, apperr.ErrUnauthorized)
		case claims.Role != role:
			abort(c, apperr.ErrForbidden)
		default:
			c.Next()
		}
	}
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.StatusOf(err), gin.H{"success": false, "message": apperr.PublicMessage(err)})
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok && claims.Subject != ""
}

package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey  = "claims"
	profileKey = "profile"
)

// Bearer enforces bearer JWT tokens signed with HS256.
func Bearer(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole loads the caller's profile and rejects roles outside allowed.
// It must run after Bearer.
func RequireRole(profiles ProfileStore, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		p, err := profiles.Profile(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, ErrProfileNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no profile for this account"})
				return
			}
			log.Printf("auth: profile lookup for %s failed: %v", claims.Subject, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
			return
		}
		for _, role := range allowed {
			if p.Role == role {
				c.Set(profileKey, p)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// ClaimsFrom returns the claims stored by Bearer.
func ClaimsFrom(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

// ProfileFrom returns the profile stored by RequireRole.
func ProfileFrom(c *gin.Context) (Profile, bool) {
	v, ok := c.Get(profileKey)
	if !ok {
		return Profile{}, false
	}
	p, ok := v.(Profile)
	return p, ok
}

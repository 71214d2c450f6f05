package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/interview-scheduler/internal/auth"
	"github.com/justsurfingit/interview-scheduler/internal/models"
	"github.com/justsurfingit/interview-scheduler/internal/services"
)

const viewerKey = "viewer"

type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the caller as
// a services.Viewer. Both 401 cases tell the client its session is over.
func Auth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifyClaimsFromAuthHeader(c, tokens)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		userID, role, err := claims.Principal()
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}
		c.Set(viewerKey, services.Viewer{UserID: userID, Role: role})
		c.Next()
	}
}

// RequireRole lets through callers whose role is one of roles; the rest get 403.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := ViewerFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}
		for _, r := range roles {
			if r.Name() == v.Role.Name() {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "FORBIDDEN", "access denied for role "+v.Role.Name())
	}
}

// ViewerFrom returns the caller stored by Auth.
func ViewerFrom(c *gin.Context) (services.Viewer, bool) {
	raw, ok := c.Get(viewerKey)
	if !ok {
		return services.Viewer{}, false
	}
	v, ok := raw.(services.Viewer)
	return v, ok && v.Role != nil
}

func verifyClaimsFromAuthHeader(c *gin.Context, tokens TokenVerifier) (*auth.Claims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header is missing")
	}

	fields := strings.Fields(authHeader)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return nil, fmt.Errorf("invalid authorization header")
	}

	claims, err := tokens.VerifyToken(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message},
	})
}

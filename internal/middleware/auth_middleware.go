package middleware

import (
	"context"
	"net/http"
	"strings"

	"teambuilder/internal/utils"
	"teambuilder/pkg/identity"

	"github.com/gin-gonic/gin"
)

// TokenVerifier checks an ID token issued by the identity provider.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*identity.Token, error)
}

// AuthRequired validates the bearer ID token and sets uid, email and the
// admin flag on the context.
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			return
		}

		idToken := strings.TrimPrefix(authHeader, "Bearer ")
		if idToken == authHeader || idToken == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", utils.ErrInvalidToken)
			return
		}

		c.Set(utils.ContextKeyUID, token.UID)
		c.Set(utils.ContextKeyEmail, token.Email)
		c.Set(utils.ContextKeyIsAdmin, token.Admin)

		c.Next()
	}
}

// AdminRequired middleware ensures the caller carries the admin claim
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(utils.ContextKeyUID); !exists {
			utils.UnauthorizedResponse(c)
			return
		}

		if !IsAdmin(c) {
			utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			return
		}

		c.Next()
	}
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(utils.ContextKeyIsAdmin)
}

func CurrentUID(c *gin.Context) string {
	return c.GetString(utils.ContextKeyUID)
}

func CurrentEmail(c *gin.Context) string {
	return c.GetString(utils.ContextKeyEmail)
}

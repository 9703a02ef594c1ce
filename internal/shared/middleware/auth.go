package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/shared"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/response"
	"library-backend/pkg/jwt"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// RevocationChecker reports whether a token id was blacklisted on logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Auth verifies the Bearer token and stores the caller's identity and
// claims in the gin context. A failed blacklist lookup rejects the request.
func Auth(tokens TokenValidator, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, apperror.NewUnauthorized(apperror.ReasonUnauthorized, "missing authorization header"))
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Error(c, apperror.NewUnauthorized(apperror.ReasonUnauthorized, "invalid authorization header format"))
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Error(c, apperror.NewUnauthorized(apperror.ReasonUnauthorized, "invalid or expired token"))
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Error(c, apperror.NewUnauthorized(apperror.ReasonUnauthorized, "invalid user in token"))
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			response.Error(c, apperror.NewInternal("token revocation check failed", err))
			return
		}
		if revoked {
			response.Error(c, apperror.NewUnauthorized(apperror.ReasonUnauthorized, "token has been revoked"))
			return
		}

		c.Set(shared.CtxUserID, userID)
		c.Set(shared.CtxRole, claims.Role)
		c.Set(shared.CtxUsername, claims.Username)
		c.Set(shared.CtxToken, claims)
		c.Next()
	}
}

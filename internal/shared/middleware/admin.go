package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/response"
)

// RequireRole lets the request through only when Auth stored one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(shared.CtxRole)
		if role == "" || !slices.Contains(roles, role) {
			response.Error(c, apperror.NewForbidden(apperror.ReasonForbidden, "access denied for role "+quoteRole(role)))
			return
		}
		c.Next()
	}
}

func RequireLibrarian() gin.HandlerFunc {
	return RequireRole(shared.RoleLibrarian)
}

func RequireCustomer() gin.HandlerFunc {
	return RequireRole(shared.RoleCustomer)
}

func quoteRole(role string) string {
	if role == "" {
		return "<none>"
	}
	return `"` + role + `"`
}

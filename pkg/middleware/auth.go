package middleware

import (
	"strings"

	"npc-chatlab/backend/pkg/errors"
	"npc-chatlab/backend/pkg/jwt"
	"npc-chatlab/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware checks that the request carries a valid operator
// token and stores the claims in the context.
func JWTAuthMiddleware(jwtService *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authorization header is required"))
			c.Abort()
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			log.Warn("token validation failed", "error", err.Error(), "path", c.Request.URL.Path)
			c.Error(errors.NewUnauthorizedError("INVALID_TOKEN", "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("operator", claims.Operator)
		c.Next()
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/competency-advisor/internal/pkg/ctxutil"
	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return am.handle(true)
}

// OptionalAuth lets anonymous requests through but still rejects a token
// that is present and invalid.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return am.handle(false)
}

func (am *AuthMiddleware) handle(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			if !required {
				c.Next()
				return
			}
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			var ae *apierr.Error
			if errors.As(err, &ae) && ae.Status != http.StatusUnauthorized {
				am.log.Error("Token check failed", "error", err)
				abortAuth(c, ae.Status, ae.Code, err.Error())
				return
			}
			abortAuth(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		c.Request = c.Request.WithContext(ctx)
		if ctxutil.EmployeeID(ctx) <= 0 {
			abortAuth(c, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
		c.Next()
	}
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"message": msg, "code": code},
	})
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

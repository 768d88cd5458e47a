package middleware

import (
	"net/http"
	"strings"

	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "subject"

// Auth requires a valid bearer token and stores its subject under SubjectKey.
func Auth(validator *jwt.Validator, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "Auth")
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "missing or invalid token",
			})
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			log.Debug("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid token",
			})
			return
		}
		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// Subject returns the subject stored by Auth, or "" on unauthenticated routes.
func Subject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

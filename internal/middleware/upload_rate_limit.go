package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// UploadRateLimit caps the number of upload requests per subject and day.
// Mount it on upload routes after Auth.
func UploadRateLimit(counter Counter, dailyLimit int, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "UploadRateLimit")
	return func(c *gin.Context) {
		sub := Subject(c)
		if sub == "" || dailyLimit <= 0 {
			c.Next()
			return
		}

		// Rate limit key: upload_limit:{subject}:{date}, resets at midnight
		now := time.Now()
		key := fmt.Sprintf("upload_limit:%s:%s", sub, now.Format("2006-01-02"))
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

		count, ttl, err := counter.Hit(c.Request.Context(), key, midnight.Sub(now))
		if err != nil {
			log.Warn("Upload limiter unavailable", "error", err)
			c.Next()
			return
		}
		if count > int64(dailyLimit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":               "upload_rate_limit_exceeded",
				"message":             "Too many uploads today. Please try again tomorrow.",
				"retry_after_hours":   int(ttl.Hours()),
				"max_uploads_per_day": dailyLimit,
			})
			return
		}
		c.Next()
	}
}

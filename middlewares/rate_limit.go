package middlewares

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
)

// RateLimit applies limiter per client address; rejections answer 429.
func RateLimit(limiter *services.RateLimiter, m *services.MetricsAggregator, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Allow(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			if m != nil {
				m.RecordRateLimitHit()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       message,
				"retry_after": retryAfter,
				"timestamp":   time.Now(),
			})
			return
		}
		c.Next()
	}
}

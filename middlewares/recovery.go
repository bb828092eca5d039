package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const PanicErrorKind = "PanicError"

// Recovery turns a panic into a generic 500. Detail goes to the log, and to
// the client only when exposeDetail is set.
func Recovery(logger *zap.Logger, exposeDetail bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			err := fmt.Errorf("panic: %v", recovered)
			logger.Error("panic recovered",
				zap.String("request_id", GetRequestID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
				zap.Stack("stack"),
			)
			_ = c.Error(err).SetMeta(PanicErrorKind)

			body := gin.H{"error": "internal server error", "timestamp": time.Now()}
			if exposeDetail {
				body["detail"] = err.Error()
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}

package middlewares

import (
	"time"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
)

const defaultErrorKind = "Error"

// Metrics records request volume and latency, and every error handlers
// attached with c.Error. The gin.Error meta, when a string, names the kind.
// Websocket upgrades are counted but their connection time is not latency.
func Metrics(m *services.MetricsAggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		m.RecordRequestStart(c.Request.Method, endpoint)
		stream := c.IsWebsocket()

		c.Next()

		for _, e := range c.Errors {
			kind := defaultErrorKind
			if k, ok := e.Meta.(string); ok && k != "" {
				kind = k
			}
			m.RecordError(kind, e.Error(), services.RequestContext{
				URL:      c.Request.URL.RequestURI(),
				Method:   c.Request.Method,
				ClientIP: c.ClientIP(),
			})
		}
		if stream {
			m.RecordStreamFinish(c.Writer.Status())
			return
		}
		m.RecordRequestFinish(endpoint, time.Since(start), c.Writer.Status())
	}
}

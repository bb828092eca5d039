package middlewares

import (
	"bytes"
	"io"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
)

const maxInspectedBody = 64 << 10

// SecurityMonitor feeds each request to the monitor. It never aborts.
func SecurityMonitor(monitor *services.SecurityMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body string
		if c.Request.Body != nil && services.ShouldInspectBody(c.ContentType()) {
			buf, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInspectedBody))
			if err == nil {
				body = string(buf)
			}
			// hand the consumed prefix back in front of whatever was left unread
			c.Request.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(buf), c.Request.Body), c.Request.Body}
		}

		monitor.Inspect(services.InspectedRequest{
			Method:    c.Request.Method,
			Path:      c.Request.URL.RequestURI(),
			Body:      body,
			UserAgent: c.Request.UserAgent(),
			ClientIP:  c.ClientIP(),
		})

		c.Next()
	}
}

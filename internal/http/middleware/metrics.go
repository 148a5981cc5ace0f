package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/civicworks/sitelore-backend/internal/observability"
)

// Metrics counts HTTP requests per method/route/status when metrics are
// enabled.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.IncAPIRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}

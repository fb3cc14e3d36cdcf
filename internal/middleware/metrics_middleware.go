package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
)

// MetricsMiddleware 라우트 템플릿 기준으로 요청 수/지연 기록
func MetricsMiddleware(m *metrics.PipelineMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

package httpx

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/pkg/ctxmeta"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

// RequestLogger — журнал и латентность HTTP-запросов.
// /metrics и /ping не логируются; неизвестные маршруты идут в метрики под route="unmatched".
func RequestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		switch route {
		case "/metrics", "/ping":
			return
		case "":
			route = "unmatched"
		}

		elapsed := time.Since(start)
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Observe(elapsed.Seconds())

		ctx := c.Request.Context()
		sub, _ := ctxmeta.SubjectFromContext(ctx)
		log.Infof(ctx,
			"request method=%s path=%s route=%s status=%d subject=%s ip=%s duration=%s size=%d",
			c.Request.Method,
			c.Request.URL.Path,
			route,
			status,
			sub,
			c.ClientIP(),
			elapsed,
			c.Writer.Size(),
		)
	}
}

package rest

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Gunvolt24/storefront-sync/pkg/httpx"
)

// NewRouter — маршруты сервиса. otelServiceName пустой — без трейсинга запросов.
func NewRouter(h *Handler, staticDir, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/", h.authenticate())
	api.GET("/orders/:id", h.getOrderByID)
	api.GET("/customers/:id/orders", h.listCustomerOrders)
	api.GET("/customers/:id/orders/stream", h.streamCustomerOrders)
	api.GET("/stores/orders", h.listStoreOrders)
	api.GET("/stores/orders/stream", h.streamStoreOrders)

	admin := api.Group("/cache", h.requireAdmin())
	admin.POST("/invalidate", h.invalidateCache)
	admin.DELETE("", h.clearCache)

	if staticDir != "" {
		r.Static("/static", staticDir)
		r.StaticFile("/", filepath.Join(staticDir, "index.html"))
	}

	return r
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/quake-explorer-go/internal/config"
	"github.com/jengzang/quake-explorer-go/internal/handler"
	"github.com/jengzang/quake-explorer-go/internal/metrics"
	"github.com/jengzang/quake-explorer-go/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h *handler.ExplorerHandler, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), m.Middleware())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Export-Rows")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Earthquake explorer API is running",
		})
	})
	r.GET("/metrics", m.Handler())

	// API 路由组
	api := r.Group("/api/v1")
	if cfg.RateLimit.Requests > 0 {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window, m.RecordRateLimitHit))
	}
	{
		// 页面定义与详情
		pages := api.Group("/pages")
		{
			pages.GET("", h.ListPages)
			pages.GET("/:page", h.GetPage)
			pages.POST("/:page/sessions", h.CreateSession)
			pages.GET("/:page/events/:eventId", h.GetEvent)
		}

		// 浏览会话
		sessions := api.Group("/sessions/:id")
		{
			sessions.GET("", h.GetSession)
			sessions.DELETE("", h.DeleteSession)

			sessions.PUT("/filters/:field", h.SetFilter)
			sessions.DELETE("/filters/:field", h.ClearFilter)
			sessions.DELETE("/filters", h.ClearFilters)
			sessions.PUT("/search", h.SetSearch)
			sessions.PUT("/pagination", h.SetPagination)

			sessions.POST("/brush", h.Brush)
			sessions.DELETE("/brush", h.ClearBrush)
			sessions.POST("/hover", h.Hover)
			sessions.GET("/map", h.GetMap)

			sessions.GET("/export.csv", h.ExportCSV)
			sessions.GET("/summary", h.GetSummary)
			sessions.GET("/preview/:eventId", h.GetPreview)
		}
	}

	return r
}

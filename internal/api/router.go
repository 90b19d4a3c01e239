package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/geolife-backend-go/internal/config"
	"github.com/jengzang/geolife-backend-go/internal/handler"
	"github.com/jengzang/geolife-backend-go/internal/middleware"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/service"
)

// SetupRouter 设置路由
// The returned function releases the background workers of the router.
func SetupRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, func()) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

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
			"message": "GeoLife Backend API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tasks := service.NewAnalysisTaskService(repository.NewAnalysisTaskRepository(db), db, cfg.CacheTTL)
	dataset := service.NewDatasetService(
		repository.NewUserRepository(db),
		repository.NewActivityRepository(db),
		repository.NewTrackRepository(db),
		repository.NewDatasetRepository(db),
	)
	analysisHandler := handler.NewAnalysisTaskHandler(tasks)
	datasetHandler := handler.NewDatasetHandler(dataset)

	cleanup := []func(){tasks.Close}

	// API 路由组
	api := r.Group("/api/v1")
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		cleanup = append(cleanup, limiter.Stop)
		api.Use(middleware.RateLimit(limiter))
	}
	if cfg.JWTSecret != "" {
		api.Use(middleware.Auth(middleware.AuthConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}))
	}
	{
		// 分析接口
		api.GET("/analyses", analysisHandler.ListAnalyzers)
		api.GET("/analyses/:name", analysisHandler.RunAnalysis)

		// 任务记录
		api.GET("/tasks", analysisHandler.ListTasks)
		api.GET("/tasks/:id", analysisHandler.GetTask)

		// 数据集浏览
		api.GET("/users", datasetHandler.ListUsers)
		api.GET("/users/:id/activities", datasetHandler.ListUserActivities)
		api.GET("/activities/:id/trackpoints", datasetHandler.GetActivityTrackPoints)
	}

	return r, func() {
		for _, f := range cleanup {
			f()
		}
	}
}

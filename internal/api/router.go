package api

import (
	"time"

	"bouquet-recommender/internal/api/handlers/health"
	"bouquet-recommender/internal/api/handlers/recommend"
	"bouquet-recommender/internal/api/middleware"
	"bouquet-recommender/internal/core/ai/queue"
	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Recommender recommend.Recommender
	Catalog     health.Pinger
	Queue       *queue.Manager
	Cache       health.StatsReporter
}

// SetupRouter 設置路由，返回的 cleanup 需在關閉服務時呼叫
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, func()) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.RequestContext())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	healthHandler := health.NewHandler(cfg.App.Version, deps.Catalog, deps.Queue, deps.Cache)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	handlers := []gin.HandlerFunc{}
	if cfg.RateLimit.Enabled {
		handlers = append(handlers, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	handlers = append(handlers, dedup.Middleware())

	recommendHandler := recommend.NewHandler(deps.Recommender, cfg.Server.RequestTimeout)
	api := router.Group("/api")
	{
		api.POST("/recommend", append(handlers, recommendHandler.HandleRecommend)...)
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("strategy", cfg.Recommend.Strategy),
		zap.Bool("ai_enabled", cfg.AI.Enabled),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, dedup.Close
}

package api

import (
	"time"

	"menu-lens/internal/api/handlers/health"
	linkHandler "menu-lens/internal/api/handlers/links"
	menuHandler "menu-lens/internal/api/handlers/menu"
	styleHandler "menu-lens/internal/api/handlers/style"
	"menu-lens/internal/api/middleware"
	"menu-lens/internal/core/image"
	"menu-lens/internal/infrastructure/config"
	"menu-lens/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services 路由需要的服務，由組合根建立
type Services struct {
	Catalogs   menuHandler.Catalogs
	Analyzer   menuHandler.Analyzer
	Health     health.Checker
	CacheStats func() map[string]interface{}
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", menuHandler.APIKeyHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, svc.Health, svc.CacheStats)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	menuH := menuHandler.NewHandler(svc.Catalogs, svc.Analyzer, image.NewService(cfg.Image.MaxSizeBytes))

	// API 路由組
	api := router.Group("/api/v1")
	{
		menuGroup := api.Group("/menu")
		{
			analyze := []gin.HandlerFunc{middleware.Deduplication(cfg.DedupWindow, menuHandler.APIKeyHeader)}
			if cfg.RateLimit.Enabled {
				analyze = append(analyze, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
			}
			analyze = append(analyze, menuH.HandleAnalyze)

			menuGroup.POST("/analyze", analyze...)
			menuGroup.GET("", menuH.HandleGet)
			menuGroup.DELETE("", menuH.HandleClear)
			menuGroup.GET("/image", menuH.HandleImage)
			menuGroup.GET("/items/:name", menuH.HandleItem)
		}

		api.GET("/style/difficulty", styleHandler.HandleDifficulty)
		linkHandler.Register(api.Group("/links"))
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("provider", cfg.Vision.Provider),
		zap.String("variant", cfg.Vision.Variant),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

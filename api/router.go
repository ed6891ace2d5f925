package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/SlpAus/aureates-pokedex-backend/internal/integrity"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/config"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/health"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handler 持有所有路由处理函数共享的依赖
type Handler struct {
	enforcer       *integrity.Enforcer
	health         *health.Checker
	maxUploadBytes int64
}

func NewHandler(enforcer *integrity.Enforcer, checker *health.Checker, maxUploadBytes int64) *Handler {
	return &Handler{enforcer: enforcer, health: checker, maxUploadBytes: maxUploadBytes}
}

// corsConfig 将配置中的来源列表转换为CORS中间件配置
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// NewRouter 创建带有全部中间件与路由的Gin引擎
func NewRouter(cfg config.ServerConfig, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestIDMiddleware())
	r.Use(cors.New(corsConfig(cfg.Cors.AllowedOrigins)))

	SetupRoutes(r, h)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	return r
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		masters := api.Group("/masters")
		{
			masters.POST("", h.CreateMaster)
			masters.GET("", h.ListMasters)
			masters.GET("/:id", h.GetMaster)
			masters.GET("/:id/image", h.GetMasterImage)
			masters.PUT("/:id", h.UpdateMaster)
			masters.DELETE("/:id", h.DeleteMaster)
		}

		abilities := api.Group("/abilities")
		{
			abilities.POST("", h.CreateAbility)
			abilities.GET("", h.ListAbilities)
			abilities.GET("/:id", h.GetAbility)
			abilities.PUT("/:id", h.UpdateAbility)
			abilities.DELETE("/:id", h.DeleteAbility)
		}
	}
}

// Health 探测数据库与Redis
func (h *Handler) Health(c *gin.Context) {
	report := h.health.Check(c.Request.Context())
	if !report.Healthy() {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": health.StatusOK})
}

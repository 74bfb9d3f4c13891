// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/SeriesMoodRecap/internal/config"
	"github.com/Corphon/SeriesMoodRecap/internal/di"
	"github.com/Corphon/SeriesMoodRecap/internal/llm"
	"github.com/Corphon/SeriesMoodRecap/internal/session"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
	"github.com/Corphon/SeriesMoodRecap/web"
)

// Version is reported by /api/health.
const Version = "1.0.0"

// SetupRouter 配置HTTP路由
func SetupRouter(cfg *config.Config, container *di.Container) (*gin.Engine, error) {
	sessions, err := di.Resolve[*session.Manager](container, "sessions")
	if err != nil {
		return nil, fmt.Errorf("session manager not initialized: %w", err)
	}
	metrics, err := di.Resolve[*utils.APIMetrics](container, "metrics")
	if err != nil {
		return nil, fmt.Errorf("metrics not initialized: %w", err)
	}
	hub, err := di.Resolve[*Hub](container, "hub")
	if err != nil {
		return nil, fmt.Errorf("websocket hub not initialized: %w", err)
	}
	var limiter *RateLimiter
	if container.Has("rate_limiter") {
		if limiter, err = di.Resolve[*RateLimiter](container, "rate_limiter"); err != nil {
			return nil, err
		}
	}

	handler := NewHandler(sessions, hub, metrics, HealthInfo{
		Version:          Version,
		OMDbConfigured:   cfg.OMDbAPIKey != "",
		LLMProvider:      cfg.LLMProvider,
		LLMConfigured:    cfg.LLMConfig()["api_key"] != "",
		GenerativeModel:  cfg.LLMModel(),
		RateLimitEnabled: limiter != nil,
	})

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(metrics))
	r.Use(corsMiddleware())

	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	r.SetHTMLTemplate(templates)
	r.StaticFS("/static", http.FS(web.Static()))

	// ===============================
	// 页面路由
	// ===============================
	r.GET("/", handler.IndexPage)
	r.GET("/ws/sessions/:id", handler.SessionWebSocket)

	// ===============================
	// API路由
	// ===============================
	apiGroup := r.Group("/api")
	if limiter != nil {
		apiGroup.Use(RateLimitByIP(limiter, metrics))
	}
	{
		apiGroup.GET("/health", handler.Health)
		apiGroup.GET("/metrics", handler.Metrics)
		apiGroup.GET("/providers", func(c *gin.Context) {
			handler.Response.Success(c, gin.H{"providers": llm.ListProviders(), "active": cfg.LLMProvider})
		})

		sessionGroup := apiGroup.Group("/sessions")
		{
			sessionGroup.POST("", handler.CreateSession)
			sessionGroup.GET("/:id", handler.GetSession)
			sessionGroup.PUT("/:id/query", handler.SetQuery)
			sessionGroup.POST("/:id/search", handler.Search)
			sessionGroup.POST("/:id/select", handler.Select)
			sessionGroup.DELETE("/:id", handler.DeleteSession)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		handler.Response.Error(c, http.StatusNotFound, "NOT_FOUND", "No route for "+c.Request.URL.Path, nil)
	})

	return r, nil
}

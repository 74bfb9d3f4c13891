// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Corphon/SeriesMoodRecap/internal/api"
	"github.com/Corphon/SeriesMoodRecap/internal/config"
	"github.com/Corphon/SeriesMoodRecap/internal/di"
	"github.com/Corphon/SeriesMoodRecap/internal/llm"
	"github.com/Corphon/SeriesMoodRecap/internal/metadata"
	"github.com/Corphon/SeriesMoodRecap/internal/services"
	"github.com/Corphon/SeriesMoodRecap/internal/session"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"

	// 注册LLM提供者
	_ "github.com/Corphon/SeriesMoodRecap/internal/llm/providers/google"
	_ "github.com/Corphon/SeriesMoodRecap/internal/llm/providers/openrouter"
)

const shutdownTimeout = 30 * time.Second

// Server is the part of *http.Server the app drives.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用程序结构
type App struct {
	config    *config.Config
	container *di.Container
	server    Server
	stopChan  chan os.Signal
}

// New wires every service into container and builds the HTTP server.
func New(cfg *config.Config, container *di.Container) (*App, error) {
	if err := InitServices(cfg, container); err != nil {
		return nil, err
	}

	router, err := api.SetupRouter(cfg, container)
	if err != nil {
		return nil, fmt.Errorf("设置路由失败: %w", err)
	}

	return &App{
		config:    cfg,
		container: container,
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		stopChan: make(chan os.Signal, 1),
	}, nil
}

// InitServices 按依赖顺序初始化所有服务
func InitServices(cfg *config.Config, container *di.Container) error {
	logger := utils.GetLogger()

	metrics := utils.NewAPIMetrics(utils.GetMetricsCollector())
	container.Register("metrics", metrics)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	omdb := metadata.NewOMDbClient(cfg.OMDbBaseURL, cfg.OMDbAPIKey, httpClient)
	container.Register("omdb", omdb)

	provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig())
	if err != nil {
		return fmt.Errorf("LLM provider %q: %w", cfg.LLMProvider, err)
	}
	if p, ok := provider.(interface{ SetHTTPClient(*http.Client) }); ok {
		p.SetHTTPClient(httpClient)
	}
	container.Register("llm", provider)

	search := services.NewSearchService(omdb, metrics)
	detail := services.NewDetailService(omdb, metrics)
	recap := services.NewRecapService(provider, services.RandomTone, metrics).WithModel(cfg.LLMModel())
	container.Register("search", search)
	container.Register("detail", detail)
	container.Register("recap", recap)

	container.Register("sessions", session.NewManager(search, detail, recap, cfg.SessionTTL, metrics.Collector()))
	container.Register("hub", api.NewHub(metrics.Collector()))

	if cfg.RateLimitRPS > 0 {
		container.Register("rate_limiter", api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning, nil)
	}
	logger.Info("services initialized", map[string]interface{}{
		"services": container.GetNames(),
		"provider": provider.GetName(),
		"model":    cfg.LLMModel(),
	})
	return nil
}

// Run serves until SIGINT/SIGTERM or a listener failure, then shuts down.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, err := di.Resolve[*session.Manager](a.container, "sessions")
	if err != nil {
		return err
	}
	janitorDone := make(chan struct{})
	go func() {
		sessions.Run(ctx)
		close(janitorDone)
	}()

	serveErr := make(chan error, 1)
	go func() {
		utils.GetLogger().Info("server listening", map[string]interface{}{"port": a.config.Port})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	var runErr error
	select {
	case sig := <-a.stopChan:
		utils.GetLogger().Info("shutting down", map[string]interface{}{"signal": sig.String()})
	case runErr = <-serveErr:
		utils.GetLogger().Error("server failed", map[string]interface{}{"error": runErr.Error()})
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("服务器强制关闭: %w", err)
	}

	cancel()
	<-janitorDone
	a.cleanup()
	return runErr
}

// cleanup 清理资源
func (a *App) cleanup() {
	if hub, err := di.Resolve[*api.Hub](a.container, "hub"); err == nil {
		hub.Shutdown()
	}
	if limiter, err := di.Resolve[*api.RateLimiter](a.container, "rate_limiter"); err == nil {
		limiter.Stop()
	}
	utils.GetLogger().Info("shutdown complete", nil)
}

// GetConfig 获取应用配置
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetDIContainer 获取依赖注入容器
func (a *App) GetDIContainer() *di.Container {
	return a.container
}

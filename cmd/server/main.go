// cmd/server/main.go
package main

import (
	"log"

	"github.com/Corphon/SeriesMoodRecap/internal/app"
	"github.com/Corphon/SeriesMoodRecap/internal/config"
	"github.com/Corphon/SeriesMoodRecap/internal/di"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志
	if err := utils.InitLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Printf("⚠️ 无法初始化文件日志，仅输出到控制台: %v", err)
	}
	logger := utils.GetLogger()
	defer logger.Close()

	// 3. 初始化服务和路由
	application, err := app.New(cfg, di.GetContainer())
	if err != nil {
		logger.Fatal("failed to initialize", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("starting TV series mood recap server", map[string]interface{}{
		"url":   "http://localhost:" + cfg.Port,
		"debug": cfg.DebugMode,
	})

	// 4. 运行直到收到信号
	if err := application.Run(); err != nil {
		logger.Fatal("server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}

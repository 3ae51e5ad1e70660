package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"orbis-maintenance/internal/config"
	"orbis-maintenance/internal/logger"
	"orbis-maintenance/internal/service"
)

func main() {
	// 1. 加载 .env（不存在则忽略，容器环境直接注入环境变量）
	_ = godotenv.Load()

	// 2. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 3. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "orbis-maintenance")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 4. 创建服务
	maintenanceService, err := service.NewMaintenanceService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create maintenance service",
			zap.Error(err),
		)
	}

	// 5. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. 启动服务
	serviceErrChan := make(chan error, 1)
	go func() {
		if err := maintenanceService.Start(ctx); err != nil {
			serviceErrChan <- err
		}
	}()

	// 7. 等待信号（优雅关闭）
	// 服务错误也走同一条关闭路径，保证 MQTT/Redis/DB 句柄释放后再退出
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := waitForShutdown(sigChan, serviceErrChan, log)
	cancel()

	maintenanceService.Stop()
	log.Info("Maintenance service stopped")

	if exitCode != 0 {
		log.Sync()
		os.Exit(exitCode)
	}
}

// waitForShutdown 阻塞等待关闭信号或服务错误，返回进程退出码
func waitForShutdown(sigChan <-chan os.Signal, errChan <-chan error, log *zap.Logger) int {
	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		return 0
	case err := <-errChan:
		log.Error("Service error, shutting down",
			zap.Error(err),
		)
		return 1
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/internal/config"
	"github.com/clay-wangzhi/RegistryPolaris/internal/database"
	"github.com/clay-wangzhi/RegistryPolaris/internal/router"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 初始化配置
	cfg := config.Load()

	// 初始化日志
	logger.Init(cfg.Log.Level)

	// 初始化数据库连接
	db, err := database.Init(cfg.Database, cfg.Log.Level)
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}
	logger.Info("数据库连接成功", "driver", cfg.Database.Driver)

	// 导入初始数据
	if cfg.Seed.File != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Seed(ctx, cfg.Seed.File,
			services.NewRegistryAccountService(db),
			services.NewRegistrySummaryService(db))
		cancel()
		if err != nil {
			log.Fatalf("初始数据导入失败: %v", err)
		}
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, cfg)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Infof("服务器启动在端口: %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("正在关闭服务器...")

	// 设置 5 秒的超时时间来关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("服务器已退出")
}

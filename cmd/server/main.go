package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/SlpAus/aureates-pokedex-backend/api"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/config"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/database"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/health"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/shutdown"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/startup"
	"github.com/SlpAus/aureates-pokedex-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}
	gin.SetMode(cfg.Server.Mode)

	// 2. 初始化存储
	db := database.InitDB(cfg.Database, cfg.Server.Mode)
	client := database.InitRedis(context.Background(), cfg.Redis)

	// 未启用Redis时保持接口为nil，避免出现带类型的nil
	var rdb redis.Cmdable
	closers := []func() error{database.CloseDB}
	if client != nil {
		rdb = client
		closers = append(closers, client.Close)
	}

	// 3. 执行应用首次启动初始化流程
	enforcer, err := startup.InitializeApplication(cfg, db, rdb)
	if err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 4. 启动后台任务
	gracefulManager := lifecycle.NewManager("graceful")
	forcefulManager := lifecycle.NewManager("forceful")
	if interval := cfg.Maintenance.OrphanSweepInterval; interval > 0 {
		gracefulHandle, err := gracefulManager.NewServiceHandle("OrphanSweeper")
		if err != nil {
			panic(err)
		}
		forcefulHandle, err := forcefulManager.NewServiceHandle("OrphanSweeper")
		if err != nil {
			panic(err)
		}
		go enforcer.StartOrphanSweeper(gracefulHandle, forcefulHandle, interval)
	}

	// 5. 路由
	handler := api.NewHandler(enforcer, health.NewChecker(db, rdb), cfg.Server.MaxUploadBytes)
	r := api.NewRouter(cfg.Server, handler)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}
	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 6. 阻塞直到收到信号，然后优雅停机
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager, closers...)
	coordinator.ListenForSignalsAndShutdown(server)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/db"
	"plan-beyond-server/internal/di"
	"plan-beyond-server/internal/logger"
	"plan-beyond-server/internal/utils"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	applicationName    = "The Plan Beyond Server"
	applicationVersion = "v1.0.0"
)

func main() {
	configDir := flag.String("config", "config", "配置文件目录")
	exportRoutes := flag.Bool("export", false, "导出路由到 routes.json 并退出")
	flag.Parse()

	config.InitConfig(*configDir)
	cfg := config.Get()

	log := logger.New(cfg.Server.Mode)

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("❌ 数据库初始化失败")
		os.Exit(1)
	}

	if err := utils.RegisterBindingRules(); err != nil {
		log.Fatal().Err(err).Msg("❌ 注册校验规则失败")
	}

	application, err := di.InitializeApplication(cfg, gormDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ 依赖初始化失败")
	}

	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	application.Router.Init(r)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "API not found"})
	})

	// 导出模式
	if *exportRoutes {
		if err := exportAPI(r, "routes.json"); err != nil {
			log.Fatal().Err(err).Msg("❌ 导出路由失败")
		}
		log.Info().Msg("✅ 路由已成功导出到 routes.json")
		_ = application.Close()
		return
	}

	if err := application.Scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("❌ 定时任务启动失败")
	}

	printWelcomeMessage(cfg.Server.Port)

	// 停机配置
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("🚀 服务启动成功")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("❌ 服务启动失败")
		}
	}()

	// 等待中断信号关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("🛑 正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("❌ 服务强制关闭")
	}
	if err := application.Close(); err != nil {
		log.Warn().Err(err).Msg("⚠️ 释放资源失败")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("✅ 服务已退出")
}

func printWelcomeMessage(port string) {
	fmt.Println()
	fmt.Println(" ┌───────────────────────────────────────────────────────┐")
	fmt.Printf(" │   🚀  %s\n", applicationName)
	fmt.Println(" ├───────────────────────────────────────────────────────┤")
	fmt.Printf(" │   📦  后端版本 : %s\n", applicationVersion)
	fmt.Printf(" │   🔥  服务端口 : %s\n", port)
	fmt.Println(" └───────────────────────────────────────────────────────┘")
	fmt.Println()
}

type routeInfo struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

func exportAPI(r *gin.Engine, path string) error {
	routes := r.Routes()

	exportList := make([]routeInfo, 0, len(routes))
	for _, route := range routes {
		exportList = append(exportList, routeInfo{
			Method:  route.Method,
			Path:    route.Path,
			Handler: route.Handler,
		})
	}

	file, err := json.MarshalIndent(exportList, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, file, 0644)
}

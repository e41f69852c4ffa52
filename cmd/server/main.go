package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/dreadscale/internal/config"
	"github.com/user/dreadscale/internal/handler"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/router"
	"github.com/user/dreadscale/internal/service"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()
	for _, warning := range cfg.Warnings() {
		log.Printf("[Config] %s", warning)
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	// 初始化仓库与服务
	repos := repository.NewRepositories(db)
	services := service.NewServices(cfg, repos, nil)

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handler.NewHandler(cfg, services)
	r := router.New(h, "./web/templates", "./web/static")

	// 启动定时清理任务
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	services.Cleanup.Start(ctx)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second, // 片单导入按条间隔处理，需要更长的写超时
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("服务器强制关闭:", err)
	}

	// 写入尚在防抖窗口中的电影元数据
	services.Store.Flush()

	log.Println("服务器已退出")
}

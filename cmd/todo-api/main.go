package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo_api/internal/config"
	"todo_api/internal/logging"
	"todo_api/internal/metrics"
	"todo_api/internal/todo"
)

func main() {
	// 主流程：加载配置、连接数据库、启动 HTTP 服务并等待退出信号
	cfg, err := config.Load(config.DefaultPort)
	if err != nil {
		logging.New(os.Stderr, "todo-api", "info", "text").Fatal("load config failed", "err", err)
	}
	logger := logging.New(os.Stdout, "todo-api", cfg.LogLevel, cfg.LogFormat)

	gateway, closeGateway, err := openGateway(cfg, logger)
	if err != nil {
		logger.Fatal("db connect failed", "err", err)
	}
	defer closeGateway()

	handler := todo.NewHandler(gateway, logger, todo.Options{
		MountPath:      cfg.MountPath,
		GatewayTimeout: cfg.GatewayTimeout,
		Metrics:        metrics.New(nil),
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		// 启动 HTTP 服务，非正常关闭才记录错误
		logger.Info("listening", "addr", cfg.Addr, "mount", cfg.MountPath, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	// 监听系统信号，触发优雅退出
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

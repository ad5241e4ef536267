package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"todo_api/internal/config"
	"todo_api/internal/database"
	"todo_api/internal/todo"
)

// openGateway 按 DATABASE_URL 的 scheme 构造持久化网关，返回的 close 函数负责释放连接
func openGateway(cfg config.Config, logger *log.Logger) (todo.Gateway, func(), error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case config.BackendMongo:
		client, err := database.OpenMongo(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logger.Error("mongo disconnect error", "err", err)
			}
		}
		return todo.NewMongoStore(client.Database(cfg.DatabaseName)), closeFn, nil

	case config.BackendPostgres:
		db, err := database.Open(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		store := todo.NewPostgresStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate todos table: %w", err)
		}
		return store, func() { _ = db.Close() }, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return todo.NewMemoryStore(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unsupported backend %q", backend)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/pagecache"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/storage"
	"github.com/d60-Lab/yatube/pkg/telemetry"
)

// App 一次进程生命周期内的全部资源
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Storage storage.Storage
	Cache   pagecache.Store
	Janitor *service.ImageJanitor
	Engine  *gin.Engine

	closers []func(context.Context) error
}

// NewStorage 按配置选择本地或 S3
func NewStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			PublicURL:       cfg.S3.PublicURL,
		})
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}

// NewPageCache redis 未启用时使用进程内缓存
func NewPageCache(ctx context.Context, cfg *config.Config) (pagecache.Store, func(context.Context) error, error) {
	if !cfg.Redis.Enabled {
		return pagecache.NewMemoryStore(), func(context.Context) error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return pagecache.NewRedisStore(client, cfg.Cache.Prefix), func(context.Context) error { return client.Close() }, nil
}

// Build 打开数据库、存储、缓存与遥测并组装路由
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close(context.Background())
		}
	}()

	tracerShutdown, err := telemetry.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, tracerShutdown)

	sentryOn, sentryFlush, err := telemetry.InitSentry(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sentryFlush)

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func(context.Context) error { return database.Close(db) })
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	if a.Storage, err = NewStorage(ctx, cfg.Storage); err != nil {
		return nil, err
	}

	cache, closeCache, err := NewPageCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Cache = cache
	a.closers = append(a.closers, closeCache)

	a.Janitor = service.NewImageJanitor(a.Storage, 1024)
	a.closers = append(a.closers, a.Janitor.Start(2))

	a.Engine, err = NewRouter(Deps{
		Config:         cfg,
		DB:             db,
		Storage:        a.Storage,
		Cache:          cache,
		Janitor:        a.Janitor,
		SentryEnabled:  sentryOn,
		TracingEnabled: cfg.Tracing.Endpoint != "",
	})
	if err != nil {
		return nil, err
	}
	ok = true
	return a, nil
}

// Run 阻塞直到 ctx 取消，然后优雅关闭 HTTP 服务
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("yatube starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server forced to shutdown", zap.Error(err))
	}
	return a.Close(shutdownCtx)
}

// Close 逆序释放资源：janitor 排空、缓存、数据库、sentry、tracer
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/yatube/config"
)

// InitSentry DSN 为空时关闭；返回的函数在退出前刷新缓冲事件
func InitSentry(cfg config.SentryConfig) (enabled bool, flush ShutdownFunc, err error) {
	if cfg.DSN == "" {
		return false, noop, nil
	}
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, nil, fmt.Errorf("init sentry: %w", err)
	}
	return true, func(ctx context.Context) error {
		timeout := 2 * time.Second
		if dl, ok := ctx.Deadline(); ok {
			timeout = time.Until(dl)
		}
		sentry.Flush(timeout)
		return nil
	}, nil
}

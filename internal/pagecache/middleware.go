package pagecache

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// HeaderCache 响应头，值为 HIT 或 MISS
const HeaderCache = "X-Cache"

const contentType = "text/html; charset=utf-8"

// ErrSkip renderFn 返回它表示本次结果不可缓存
var ErrSkip = errors.New("pagecache: response not cacheable")

// Key 缓存键只由 URL 决定，与访问者无关
func Key(prefix string, u *url.URL) string {
	return prefix + u.Path + "?" + u.RawQuery
}

// GetOrRender 命中返回缓存内容；未命中调用 renderFn 并按 ttl 写入。
// Store 出错只记日志，当作未命中处理。
func GetOrRender(ctx context.Context, store Store, key string, ttl time.Duration, renderFn func() ([]byte, error)) ([]byte, bool, error) {
	body, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Ctx(ctx).Warn("page cache get failed", zap.String("key", key), zap.Error(err))
	}
	if err == nil && ok {
		return body, true, nil
	}

	body, err = renderFn()
	if err != nil {
		return nil, false, err
	}
	if err := store.Set(ctx, key, body, ttl); err != nil {
		logger.Ctx(ctx).Warn("page cache set failed", zap.String("key", key), zap.Error(err))
	}
	return body, false, nil
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware 缓存 GET 请求的 200 响应
func Middleware(store Store, prefix string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := Key(prefix, c.Request.URL)

		rendered := false
		body, hit, err := GetOrRender(ctx, store, key, ttl, func() ([]byte, error) {
			rendered = true
			w := &captureWriter{ResponseWriter: c.Writer}
			c.Writer = w
			c.Header(HeaderCache, "MISS")
			c.Next()
			c.Writer = w.ResponseWriter
			if w.Status() != http.StatusOK {
				return nil, ErrSkip
			}
			return w.buf.Bytes(), nil
		})
		if err != nil && !errors.Is(err, ErrSkip) {
			logger.Ctx(ctx).Warn("page render failed", zap.String("key", key), zap.Error(err))
		}
		if hit && !rendered {
			c.Header(HeaderCache, "HIT")
			c.Data(http.StatusOK, contentType, body)
			c.Abort()
		}
	}
}

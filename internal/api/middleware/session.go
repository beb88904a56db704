package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const (
	CurrentUserKey  = "current_user"
	SessionTokenKey = "session_token"
)

// SetSessionCookie 写入会话 cookie：HttpOnly、SameSite=Lax，Secure 取自配置
func SetSessionCookie(c *gin.Context, cfg config.SessionConfig, s *model.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, s.Token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

// ClearSessionCookie 以与写入时相同的属性删除 cookie
func ClearSessionCookie(c *gin.Context, cfg config.SessionConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
}

// LoginURL 未登录访问受保护页面时的跳转地址
const LoginURL = "/auth/login/"

// Session 从 cookie 解析当前用户；令牌无效时清掉 cookie，按匿名继续
func Session(auth service.AuthService, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		u, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Ctx(c.Request.Context()).Error("failed to load session", zap.Error(err))
			c.Next()
			return
		}
		if u == nil {
			ClearSessionCookie(c, cfg)
			c.Next()
			return
		}
		c.Set(CurrentUserKey, u)
		c.Set(SessionTokenKey, token)
		c.Next()
	}
}

// LoginRequired 匿名用户 302 到登录页，带上 next
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginRedirect 构造 /auth/login/?next=<path>，path 中的 / 保持原样
func LoginRedirect(next string) string {
	return LoginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext 只接受站内相对路径，否则返回 fallback
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}

// CurrentUser 未登录返回 nil
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(CurrentUserKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// UserID 未登录返回 0
func UserID(c *gin.Context) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func SessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}

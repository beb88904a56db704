package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/auth/login/?next=/create/", LoginRedirect("/create/"))
	assert.Equal(t, "/auth/login/?next=/follow/%3Fpage%3D2", LoginRedirect("/follow/?page=2"))
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/posts/1/":            "/posts/1/",
		"//evil.example.com/":  "/",
		"https://evil.example": "/",
		"/\\evil":              "/",
		"relative":             "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeNext(in, "/"), in)
	}
}

func TestLoginRequired(t *testing.T) {
	r := gin.New()
	r.GET("/secret/", LoginRequired(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/as-user/", func(c *gin.Context) {
		c.Set(CurrentUserKey, &model.User{ID: 7})
		c.Next()
	}, LoginRequired(), func(c *gin.Context) { c.String(http.StatusOK, "ok %d", UserID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secret/", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/secret/", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/as-user/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok 7", w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.Any("/auth/login/", l.Middleware(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// GET 不受限
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger_EchoesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(func(c *gin.Context, status int) { c.String(status, "custom 500") }))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "custom 500", w.Body.String())
}

// fakeAuth 只实现 Authenticate，其余方法不会被 Session 调用
type fakeAuth struct {
	service.AuthService
	users map[string]*model.User
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (*model.User, error) {
	return f.users[token], nil
}

func TestSession_InvalidTokenClearsCookieWithSameAttributes(t *testing.T) {
	cfg := config.SessionConfig{CookieName: "sessionid", TTL: time.Hour, Secure: true}
	auth := fakeAuth{users: map[string]*model.User{"good": {ID: 3, Username: "leo"}}}

	r := gin.New()
	r.Use(Session(auth, cfg))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "%d", UserID(c)) })
	r.GET("/login", func(c *gin.Context) {
		SetSessionCookie(c, cfg, &model.Session{Token: "good"})
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "good"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "3", w.Body.String())
	assert.Empty(t, w.Result().Cookies())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "stale"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "0", w.Body.String())
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	set := w.Result().Cookies()
	require.Len(t, set, 1)

	assert.Equal(t, "sessionid", cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)
	for _, ck := range []*http.Cookie{cleared[0], set[0]} {
		assert.True(t, ck.Secure)
		assert.True(t, ck.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
		assert.Equal(t, "/", ck.Path)
	}
}

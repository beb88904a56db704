package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const (
	tmplIndex          = "posts/index.html"
	tmplGroup          = "posts/group_list.html"
	tmplProfile        = "posts/profile.html"
	tmplPostDetail     = "posts/post_detail.html"
	tmplPostForm       = "posts/create_post.html"
	tmplFollow         = "posts/follow.html"
	tmplSignup         = "users/signup.html"
	tmplLogin          = "users/login.html"
	tmplLoggedOut      = "users/logged_out.html"
	tmplPasswordChange = "users/password_change_form.html"
	tmplPasswordDone   = "users/password_change_done.html"
	tmplAboutAuthor    = "about/author.html"
	tmplAboutTech      = "about/tech.html"
	tmpl404            = "core/404.html"
	tmpl500            = "core/500.html"
)

// defaultMaxUpload 单张图片上限
const defaultMaxUpload = 10 << 20

// Services 处理器依赖的服务
type Services struct {
	Auth     service.AuthService
	Posts    service.PostService
	Comments service.CommentService
	Follows  service.FollowService
	Groups   service.GroupService
	Feed     *service.FeedService
	Profiles *service.ProfileService
}

type Handler struct {
	Services
	session   config.SessionConfig
	maxUpload int64
}

func New(s Services, session config.SessionConfig) *Handler {
	return &Handler{Services: s, session: session, maxUpload: defaultMaxUpload}
}

// render 补上所有页面共用的数据
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if u := middleware.CurrentUser(c); u != nil {
		data["User"] = u
	}
	data["URL"] = c.Request.URL
	data["Path"] = c.Request.URL.Path
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.Errors{}
	}
	c.HTML(status, name, data)
}

// NotFound 渲染 core/404.html，同时用作 NoRoute
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, tmpl404, nil)
}

// ServerError 渲染 core/500.html
func (h *Handler) ServerError(c *gin.Context, status int) {
	h.render(c, status, tmpl500, nil)
}

// fail 把 not found 类错误映射成 404，其余记日志后 500
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrPostNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrGroupNotFound):
		h.NotFound(c)
	default:
		_ = c.Error(err)
		logger.Ctx(c.Request.Context()).Error("request failed", zap.Error(err))
		h.ServerError(c, http.StatusInternalServerError)
	}
}

func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Health 存活探针
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) AboutAuthor(c *gin.Context) { h.render(c, http.StatusOK, tmplAboutAuthor, nil) }

func (h *Handler) AboutTech(c *gin.Context) { h.render(c, http.StatusOK, tmplAboutTech, nil) }

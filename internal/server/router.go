package server

import (
	"html/template"
	"net/http"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/pagecache"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/web"
	"github.com/d60-Lab/yatube/pkg/storage"
)

// IndexCachePrefix 首页缓存键前缀
const IndexCachePrefix = "index_page"

// Deps 组装路由所需的外部资源
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Storage storage.Storage
	Cache   pagecache.Store
	// Janitor 为 nil 时旧图片同步删除
	Janitor        *service.ImageJanitor
	SentryEnabled  bool
	TracingEnabled bool
}

// NewServices 按 DB 与存储构建全部服务，CLI 也复用
func NewServices(cfg *config.Config, db *gorm.DB, store storage.Storage, janitor *service.ImageJanitor) handler.Services {
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	groups := repository.NewGroupRepository(db)
	follows := repository.NewFollowRepository(db)
	size := cfg.Pagination.PostsPerPage

	return handler.Services{
		Auth:     service.NewAuthService(users, repository.NewSessionRepository(db), cfg.Session.TTL),
		Posts:    service.NewPostService(posts, groups, store, janitor, size),
		Comments: service.NewCommentService(repository.NewCommentRepository(db), posts),
		Follows:  service.NewFollowService(follows),
		Groups:   service.NewGroupService(groups),
		Feed:     service.NewFeedService(posts, size),
		Profiles: service.NewProfileService(users, posts, follows, size),
	}
}

// NewRouter 中间件顺序：recovery → sentry → gzip → otel → 访问日志 → session
func NewRouter(d Deps) (*gin.Engine, error) {
	return NewRouterWithServices(d, NewServices(d.Config, d.DB, d.Storage, d.Janitor))
}

func NewRouterWithServices(d Deps, svcs handler.Services) (*gin.Engine, error) {
	cfg := d.Config
	renderer, err := web.NewRenderer(template.FuncMap{"imageURL": svcs.Posts.ImageURL})
	if err != nil {
		return nil, err
	}
	h := handler.New(svcs, cfg.Session)

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(middleware.Recovery(h.ServerError))
	if d.SentryEnabled {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if d.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Session(svcs.Auth, cfg.Session))

	r.GET("/health", h.Health)
	r.StaticFS("/static", http.FS(web.Static()))
	if ls, ok := d.Storage.(*storage.LocalStorage); ok && strings.HasPrefix(cfg.Storage.Local.BaseURL, "/") {
		r.Static(strings.TrimSuffix(cfg.Storage.Local.BaseURL, "/"), ls.BasePath())
	}

	// 公开页面
	r.GET("/", pagecache.Middleware(d.Cache, IndexCachePrefix, cfg.Cache.IndexTTL), h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:id/", h.PostDetail)
	r.GET("/about/author/", h.AboutAuthor)
	r.GET("/about/tech/", h.AboutTech)

	// 需要登录
	authed := r.Group("/", middleware.LoginRequired())
	{
		authed.GET("/create/", h.CreatePostForm)
		authed.POST("/create/", h.CreatePost)
		authed.GET("/posts/:id/edit/", h.EditPostForm)
		authed.POST("/posts/:id/edit/", h.EditPost)
		authed.POST("/posts/:id/comment/", h.AddComment)
		authed.GET("/follow/", h.FollowIndex)
		for _, m := range []string{http.MethodGet, http.MethodPost} {
			authed.Handle(m, "/profile/:username/follow/", h.Follow)
			authed.Handle(m, "/profile/:username/unfollow/", h.Unfollow)
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	users := r.Group("/auth")
	{
		users.GET("/signup/", h.SignupForm)
		users.POST("/signup/", limiter.Middleware(), h.Signup)
		users.GET("/login/", h.LoginForm)
		users.POST("/login/", limiter.Middleware(), h.Login)
		users.GET("/logout/", h.Logout)
		users.POST("/logout/", h.Logout)

		pw := users.Group("/password_change", middleware.LoginRequired())
		pw.GET("/", h.PasswordChangeForm)
		pw.POST("/", h.PasswordChange)
		pw.GET("/done/", h.PasswordChangeDone)
	}

	r.NoRoute(h.NotFound)
	return r, nil
}

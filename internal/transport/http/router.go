package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/config"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/middleware"
	"todoapi/backend/internal/monitoring"
	"todoapi/backend/internal/service"
	"todoapi/backend/internal/storage"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	Pipeline      *middleware.Pipeline
	AuthService   *service.AuthService
	UserService   *service.UserService
	APIKeyService *service.APIKeyService
	TodoService   *service.TodoService
	Store         storage.Store
	Clock         clock.Clock
	Metrics       *monitoring.Metrics
	Health        healthcheck.Handler
	Logger        *zap.Logger
}

// 各路由的允许角色集合
//
// 授权按集合成员判断：集合里没有的级别一律拒绝，
// 包含匿名级别（0）的路由不要求认证
var (
	rolesAuthenticated = []int{domain.RoleLevelUser, domain.RoleLevelAdmin, domain.RoleLevelSuper}
	rolesAdmin         = []int{domain.RoleLevelAdmin, domain.RoleLevelSuper}
	rolesPublic        = []int{domain.RoleLevelAnonymous, domain.RoleLevelUser, domain.RoleLevelAdmin, domain.RoleLevelSuper}
)

// NewRouter 创建并返回 Gin 路由实例
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.HTTPMetrics(deps.Metrics))
	router.Use(middleware.RequestSizeLimit(1 * 1024 * 1024))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", deps.Config.APIKey.Header},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// 如果允许所有来源，则需清空凭证支持
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.UserService, deps.Config.JWT)
	userHandler := NewUserHandler(deps.UserService)
	apiKeyHandler := NewAPIKeyHandler(deps.APIKeyService, deps.Config.APIKey)
	todoHandler := NewTodoHandler(deps.TodoService)
	usageHandler := NewUsageHandler(deps.Store, deps.Clock)

	// 探针和指标不走准入管道
	router.GET("/healthz", gin.WrapF(deps.Health.LiveEndpoint))
	router.GET("/readyz", gin.WrapF(deps.Health.ReadyEndpoint))
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// 公开路由：全局令牌桶 + 按客户端地址的固定窗口限流
	ingress := middleware.IngressThrottle(deps.Config.RateLimit.IngressRate, deps.Config.RateLimit.IngressBurst)
	public := router.Group("/auth", ingress, deps.Pipeline.Protect(rolesPublic...))
	{
		public.POST("/login", authHandler.Login)
		public.POST("/register", authHandler.Register)
		public.POST("/logout", authHandler.Logout)
	}

	// 已认证用户路由
	authed := router.Group("/", deps.Pipeline.Protect(rolesAuthenticated...))
	{
		authed.GET("/users/me", userHandler.Me)

		authed.GET("/todos", todoHandler.List)
		authed.POST("/todos", todoHandler.Create)
		authed.PATCH("/todos/:id", todoHandler.Update)
		authed.DELETE("/todos/:id", todoHandler.Delete)

		authed.GET("/apikeys", apiKeyHandler.List)
		authed.POST("/apikeys", apiKeyHandler.Create)
		authed.POST("/apikeys/:id/rotate", apiKeyHandler.Rotate)
		authed.DELETE("/apikeys/:id", apiKeyHandler.Delete)

		authed.GET("/usage", usageHandler.Get)
	}

	// 管理员路由
	admin := router.Group("/users", deps.Pipeline.Protect(rolesAdmin...))
	{
		admin.GET("", userHandler.List)
		admin.GET("/:id", userHandler.Get)
		admin.PATCH("/:id", userHandler.Update)
		admin.DELETE("/:id", userHandler.Delete)
	}

	return router
}

package router

import (
	"context"
	"net/http"

	"chatrelay/api"
	"chatrelay/config"
	_ "chatrelay/docs"
	"chatrelay/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Dependencies 路由依赖，进程启动时构建一次
type Dependencies struct {
	Users   api.UserStore
	Chats   api.ChatStore
	Tokens  *middleware.JWT
	Gateway api.Gateway
	Mailer  api.Mailer // 可为 nil
	Logger  *zap.Logger
}

// SetupRouter 设置路由，ctx 结束时后台清理协程随之退出
func SetupRouter(ctx context.Context, cfg *config.Config, deps Dependencies) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	// 默认信任所有代理，客户端可伪造 X-Forwarded-For 绕过按 IP 限流
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Error("invalid server.trusted_proxies, ignoring forwarded headers",
			zap.Strings("trusted_proxies", cfg.Server.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authHandler := api.NewAuthHandler(cfg, deps.Users, deps.Tokens, deps.Mailer, log)
	chatHandler := api.NewChatHandler(cfg, deps.Chats, deps.Gateway, log)

	apiGroup := r.Group("/api")
	{
		// 注册登录（无需令牌，按 IP 限流）
		limiter := middleware.AuthRateLimit(ctx, cfg.RateLimit.LoginAttempts, cfg.RateLimit.Window)
		apiGroup.POST("/register", limiter, authHandler.Register)
		apiGroup.POST("/login", limiter, authHandler.Login)

		// 需要 JWT 认证的路由
		authorized := apiGroup.Group("")
		authorized.Use(middleware.JWTAuth(deps.Tokens))
		{
			authorized.POST("/chat", chatHandler.Chat)
			authorized.GET("/chat-history", chatHandler.ChatHistory)
			authorized.GET("/chat-history/export", chatHandler.ExportHistory)
			authorized.GET("/profile", authHandler.GetProfile)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-Id")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

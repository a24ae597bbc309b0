package router

import (
	"net/http"

	"Jazz_Forum/internal/handler"
	"Jazz_Forum/internal/middleware"
	"Jazz_Forum/internal/repository/redis"
	"Jazz_Forum/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Users         *service.UserService
	WorkingGroups *service.WorkingGroupService
	Threads       *service.ThreadService
	Posts         *service.PostService
	Lifecycle     *service.LifecycleService
	Sessions      *redis.SessionRepository
	Log           *zap.Logger
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(d.Log))

	user := handler.NewUserHandler(d.Users)
	groups := handler.NewWorkingGroupHandler(d.WorkingGroups)
	threads := handler.NewThreadHandler(d.Threads)
	posts := handler.NewPostHandler(d.Posts)
	lc := handler.NewLifecycleHandler(d.Lifecycle)
	auth := middleware.AuthMiddleware(d.Sessions)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
		userGroup.POST("/logout", auth, user.Logout)
		userGroup.GET("/me", auth, user.Me)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", user.TokenRefresh)
	}

	// 工作组相关接口
	wgGroup := r.Group("/api/working-groups")
	wgGroup.Use(auth)
	{
		wgGroup.POST("", groups.Create)
		wgGroup.GET("", groups.List)
		wgGroup.GET("/:slug", groups.Get)
		wgGroup.POST("/:slug/join", groups.BySlug, groups.Join)
		wgGroup.POST("/:slug/leave", groups.BySlug, groups.Leave)
		wgGroup.DELETE("/:slug", groups.BySlug, lc.DeleteWorkingGroup())
	}

	// 帖子相关接口
	threadGroup := r.Group("/api/threads")
	threadGroup.Use(auth)
	{
		threadGroup.POST("", threads.Create)
		threadGroup.GET("", threads.List)
		threadGroup.GET("/:id", threads.Get)
		threadGroup.PATCH("/:id/status", threads.UpdateStatus)
		threadGroup.PATCH("/:id/pin", threads.SetPinned)
		threadGroup.DELETE("/:id", lc.DeleteThread())
		threadGroup.POST("/:id/posts", posts.Create)
		threadGroup.GET("/:id/posts", posts.List)
	}

	// 回复相关接口
	postGroup := r.Group("/api/posts")
	postGroup.Use(auth)
	{
		postGroup.PATCH("/:id", posts.Edit)
		postGroup.DELETE("/:id", lc.DeletePost())
	}

	// 管理接口
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(auth)
	{
		adminGroup.GET("/deleted", lc.ListDeleted)
		adminGroup.POST("/restore", lc.Restore)
		adminGroup.PATCH("/users/:id/role", user.ChangeRole)
	}

	return r
}

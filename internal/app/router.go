package app

import (
	"quizsmith/docs"
	"quizsmith/internal/config"
	"quizsmith/internal/middleware"
	"quizsmith/internal/model"
	"quizsmith/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerAuthorRoutes(authGroup, c)
	}

	// 实时预览 websocket，令牌通过 query 传递
	router.GET("/ws/preview", middleware.AuthMiddleware(cfg), c.preview.LivePreview)

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 播放页和一次性预览直接返回 HTML
	router.GET("/play/:id", c.player.Play)
	router.GET("/preview/:token", c.preview.ServePopout)
}

func (a *App) registerAuthorRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.Profile)
	rg.GET("/dashboard", c.dashboard.GetDashboard)

	// 模板
	rg.GET("/templates", c.template.ListTemplates)
	rg.POST("/templates", c.template.CreateTemplate)
	rg.GET("/templates/:id", c.template.GetTemplate)
	rg.PUT("/templates/:id", c.template.UpdateTemplate)
	rg.DELETE("/templates/:id", c.template.DeleteTemplate)
	rg.POST("/templates/:id/preview-image", c.template.UploadPreviewImage)

	// 测验
	rg.GET("/tests", c.test.ListTests)
	rg.POST("/tests", c.test.CreateTest)
	rg.GET("/tests/:id", c.test.GetTest)
	rg.PUT("/tests/:id", c.test.UpdateTest)
	rg.DELETE("/tests/:id", c.test.DeleteTest)
	rg.POST("/tests/:id/mutations", c.test.ApplyMutations)
	rg.GET("/tests/:id/embed", c.test.EmbedSnippet)
	rg.GET("/tests/:id/export", c.test.ExportTest)

	// 草稿
	rg.GET("/drafts/:key", c.draft.GetDraft)
	rg.PUT("/drafts/:key", c.draft.SaveDraft)
	rg.DELETE("/drafts/:key", c.draft.DeleteDraft)

	// 预览
	rg.POST("/preview", c.preview.Preview)
	rg.POST("/preview/popout", c.preview.CreatePopout)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/settings", c.setting.GetSettings)
		admin.POST("/settings", c.setting.UpdateSettings)
	}
}

package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizsmith/internal/config"
	"quizsmith/internal/controller"
	"quizsmith/internal/model"
	"quizsmith/internal/render"
	"quizsmith/internal/repository"
	"quizsmith/internal/service"
	"quizsmith/internal/util"
	"quizsmith/pkg/configwatcher"
	"quizsmith/pkg/database"
	"quizsmith/pkg/logger"
	"quizsmith/pkg/monitoring"
	"quizsmith/pkg/security"
	"quizsmith/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	stopWatcher     context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	template  *repository.PageTemplateRepository
	test      *repository.TestRepository
	setting   *repository.AdminSettingRepository
	dashboard *repository.DashboardRepository
}

type services struct {
	auth      *service.AuthService
	storage   *service.StorageService
	template  *service.TemplateService
	test      *service.TestService
	preview   *service.PreviewService
	draft     *service.DraftService
	setting   *service.SettingService
	dashboard *service.DashboardService
	renderer  *render.Renderer
}

type controllers struct {
	auth      *controller.AuthController
	health    *controller.HealthController
	template  *controller.TemplateController
	test      *controller.TestController
	draft     *controller.DraftController
	preview   *controller.PreviewController
	player    *controller.PlayerController
	setting   *controller.SettingController
	dashboard *controller.DashboardController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		template:  repository.NewPageTemplateRepository(db),
		test:      repository.NewTestRepository(db),
		setting:   repository.NewAdminSettingRepository(db),
		dashboard: repository.NewDashboardRepository(db),
	}
}

// rendererOptions 从配置构造渲染器选项
func rendererOptions(cfg *config.RendererConfig) render.Options {
	return render.Options{
		FrameworkURL:  cfg.FrameworkURL,
		FrameworkKind: cfg.FrameworkKind,
		Theme:         render.Theme(cfg.Theme),
	}
}

func newDraftStore(cfg *config.DraftConfig, rdb *redis.Client) (service.DraftStore, error) {
	if cfg.Backend == util.DraftBackendFile {
		return service.NewFileDraftStore(cfg.Dir)
	}
	return service.NewRedisDraftStore(rdb, cfg.TTL), nil
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	s.renderer = render.NewRenderer(rendererOptions(&cfg.Renderer))
	s.storage = service.NewStorageService(&cfg.Storage)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.template = service.NewTemplateService(repos.template, s.storage)
	s.test = service.NewTestService(repos.test, s.template)
	s.preview = service.NewPreviewService(s.renderer, s.template, rdb, cfg.Preview.PopoutTTL, cfg.Preview.PublicBaseURL)

	store, err := newDraftStore(&cfg.Draft, rdb)
	if err != nil {
		return nil, err
	}
	s.draft = service.NewDraftService(store, cfg.Draft.Debounce)

	s.setting = service.NewSettingService(repos.setting, map[string]string{
		model.SettingStorageBackend: cfg.Database.Driver,
		model.SettingAssetStorage:   cfg.Storage.Type,
	})
	s.dashboard = service.NewDashboardService(repos.dashboard, repos.test, repos.template)

	// 渲染器配置支持热加载
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.renderer.SetOptions(rendererOptions(&newCfg.Renderer))
	})

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		health:    controller.NewHealthController(db, rdb),
		template:  controller.NewTemplateController(s.template),
		test:      controller.NewTestController(s.test, s.preview, s.draft),
		draft:     controller.NewDraftController(s.draft),
		preview:   controller.NewPreviewController(s.preview),
		player:    controller.NewPlayerController(s.test, s.preview),
		setting:   controller.NewSettingController(s.setting),
		dashboard: controller.NewDashboardController(s.dashboard),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure("/play/", "/preview/"))
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// seedTemplates 模板表为空时导入内置模板
func (a *App) seedTemplates(db *gorm.DB, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return
	}

	var count int64
	if err := db.Model(&model.PageTemplate{}).Count(&count).Error; err != nil || count > 0 {
		return
	}

	templates, err := database.LoadSeedTemplates(path)
	if err != nil {
		logger.Log.Error("Failed to load seed templates", zap.String("path", path), zap.Error(err))
		return
	}
	inserted, err := database.SeedTemplates(db, templates)
	if err != nil {
		logger.Log.Error("Failed to seed templates", zap.Error(err))
		return
	}
	logger.Log.Info("Seeded page templates", zap.Int("count", inserted))
}

// watchConfig 监听配置文件变化并通知回调
func (a *App) watchConfig() {
	if a.Config.FilePath == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatcher = cancel

	go func() {
		err := configwatcher.WatchConfig(ctx, a.Config.FilePath, 500*time.Millisecond, config.LoadConfig, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")
	util.RegisterJSONTagNames()
	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认跳过迁移，需通过 -migrate 显式开启
	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	app.seedTemplates(db, cfg.Seed.TemplatesFile)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.watchConfig()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.stopWatcher != nil {
		a.stopWatcher()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// 写入尚在防抖中的草稿
	if a.services != nil && a.services.draft != nil {
		a.services.draft.Flush()
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}

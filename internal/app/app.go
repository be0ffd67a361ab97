package app

import (
	"context"
	"errors"
	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/controller"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/middleware"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/service"
	"interview_prep_backend/pkg/configwatcher"
	"interview_prep_backend/pkg/database"
	"interview_prep_backend/pkg/lock"
	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"
	"interview_prep_backend/pkg/security"
	"interview_prep_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	session *repository.SessionRepository
	profile *repository.UserProfileRepository
}

type services struct {
	storage *service.StorageService
	session *service.SessionService
	profile *service.UserProfileService
	topic   *service.TopicService
}

type controllers struct {
	session  *controller.SessionController
	question *controller.QuestionController
	profile  *controller.UserProfileController
	topic    *controller.TopicController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		session: repository.NewSessionRepository(db),
		profile: repository.NewUserProfileRepository(db),
	}
}

// newLocker 启用 Redis 时跨实例加锁，否则进程内加锁
func newLocker(rdb *redis.Client, cfg *config.Config) lock.Locker {
	if rdb != nil {
		return lock.NewRedisLocker(rdb, cfg.Session.LockTTL())
	}
	return lock.NewLocalLocker()
}

// newGenerator 未配置 AI 或初始化失败时使用固定文案
func newGenerator(cfg *config.Config) service.Generator {
	provider, err := llm.NewProvider(context.Background(), cfg.AI, logger.Log)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			logger.Log.Info("AI provider not configured, using fallback generator")
		} else {
			logger.Log.Warn("Failed to initialize AI provider, using fallback generator", zap.Error(err))
		}
		return service.FallbackGenerator{}
	}
	logger.Log.Info("AI provider initialized", zap.String("model", provider.ModelID()))
	return service.NewAIService(provider, cfg.AI.MaxTokens)
}

func (a *App) initServices(repos *repositories, cfg *config.Config, generator service.Generator, locker lock.Locker) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.session = service.NewSessionService(
		repos.session,
		repos.profile,
		generator,
		locker,
		s.storage,
		cfg.Session,
		cfg.AI.Timeout(),
	)
	s.profile = service.NewUserProfileService(repos.profile)
	s.topic = service.NewTopicService(cfg.TopicsFile)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		session:  controller.NewSessionController(s.session),
		question: controller.NewQuestionController(s.session),
		profile:  controller.NewUserProfileController(s.profile),
		topic:    controller.NewTopicController(s.topic),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewRouter 组装 gin 引擎，测试中直接使用
func NewRouter(cfg *config.Config, db *gorm.DB, generator service.Generator, locker lock.Locker) *gin.Engine {
	a := &App{Config: cfg, DB: db}
	return a.buildRouter(generator, locker)
}

func (a *App) buildRouter(generator service.Generator, locker lock.Locker) *gin.Engine {
	repos := a.initRepositories(a.DB)
	services := a.initServices(repos, a.Config, generator, locker)
	controllers := a.initControllers(services, a.DB)

	router := gin.New()
	a.setupMiddlewares(router, a.Config)
	a.registerRoutes(router, controllers)

	if a.Config.Storage.Type == "local" {
		router.Static("/uploads", a.Config.Storage.LocalPath)
	}
	return router
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
	}

	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("interview-prep-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.Router = app.buildRouter(newGenerator(cfg), newLocker(app.Redis, cfg))

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.ApplyMode(newCfg.Server.Mode)
		logger.Log.Info("Log level updated", zap.String("level", logger.Level().String()))
	})

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	err := configwatcher.Watch(ctx, a.ConfigDir, func(cfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(cfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config watcher stopped", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(watchCtx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
	logger.Log.Sync()
}

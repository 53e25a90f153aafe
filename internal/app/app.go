package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journey_backend/internal/config"
	"journey_backend/internal/controller"
	"journey_backend/internal/repository"
	"journey_backend/internal/service"
	"journey_backend/pkg/configwatcher"
	"journey_backend/pkg/database"
	"journey_backend/pkg/logger"
	"journey_backend/pkg/monitoring"
	"journey_backend/pkg/security"
	"journey_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user     *repository.UserRepository
	journey  *repository.JourneyRepository
	resource *repository.ResourceRepository
	progress *repository.ProgressRepository
	section  *repository.SectionRepository
	rawHTML  *repository.RawHTMLStore
}

type services struct {
	ai       *service.AIService
	auth     *service.AuthService
	user     *service.UserService
	journey  *service.JourneyService
	resource *service.ResourceService
	progress *service.ProgressService
	push     *service.PushService
}

type controllers struct {
	auth     *controller.AuthController
	journey  *controller.JourneyController
	resource *controller.ResourceController
	progress *controller.ProgressController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		journey:  repository.NewJourneyRepository(db),
		resource: repository.NewResourceRepository(db),
		progress: repository.NewProgressRepository(db),
		section:  repository.NewSectionRepository(rdb),
		rawHTML:  repository.NewRawHTMLStore(cfg, rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.push = service.NewPushService(cfg.Push)
	s.journey = service.NewJourneyService(
		cfg,
		s.ai,
		repos.journey,
		repos.resource,
		repos.user,
		repos.section,
		repos.rawHTML,
		s.push,
	)
	s.resource = service.NewResourceService(cfg, repos.resource, repos.rawHTML)
	s.progress = service.NewProgressService(repos.progress, repos.journey)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth, s.user),
		journey:  controller.NewJourneyController(s.journey),
		resource: controller.NewResourceController(s.resource),
		progress: controller.NewProgressController(s.progress),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("journey-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers)

	// 重启续跑：非终态旅程重新拉起 worker
	services.journey.ResumeIncomplete()

	app.startBackgroundTasks()

	return app
}

func (a *App) startBackgroundTasks() {
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		logger.Log.Info("Config reloaded")
		a.Config.Scrape = newCfg.Scrape
		a.Config.Search = newCfg.Search
		a.Config.Push = newCfg.Push
		a.Config.RateLimit = newCfg.RateLimit
	})
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

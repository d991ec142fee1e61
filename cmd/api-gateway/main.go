package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kirtipatel215/Internship-Management-System-sub002/api/swagger"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/handler"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/middleware"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/repository"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/service"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/cache"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/config"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/database"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/export"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/jobs"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/logger"
	corsmiddleware "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/middleware/cors"
	reqidmiddleware "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/middleware/requestid"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/render"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/storage"
)

// @title Internship NOC API
// @version 1.0.0
// @description Approval workflow and certificate issuance for internship no-objection certificates
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	artifactStore, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare certificate storage", "error", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	nocRepo := repository.NewNOCRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	seqRepo := repository.NewSequenceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "internship-noc-api",
	})

	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	renderer := render.NewCertificatePDF(
		cfg.Certificates.Institution,
		cfg.Certificates.InstitutionAddress,
		cfg.Certificates.VerificationContact,
	)
	numberingSvc := service.NewNumberingService(seqRepo, cfg.Certificates.OrgCode, logr)
	certSvc := service.NewCertificateService(certRepo, nocRepo, userRepo, numberingSvc, renderer, artifactStore, signer, userRepo, metricsSvc, logr)

	dashboardSvc := service.NewDashboardService(nocRepo, cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr)

	// The queue handler closes over the notifier so events dispatched by
	// the workflow engine come back through the same consumer.
	var notifier *service.NotifierService
	eventQueue := jobs.NewQueue("domain-events", func(ctx context.Context, job jobs.Job) error {
		return notifier.HandleJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		Logger:     logr,
	})
	notifier = service.NewNotifierService(eventQueue, dashboardSvc, logr)
	eventQueue.Start(context.Background())
	defer eventQueue.Stop()

	nocSvc := service.NewNOCService(nocRepo, userRepo, logr,
		service.WithCertificateIssuer(certSvc),
		service.WithEventDispatcher(notifier),
		service.WithConflictCounter(metricsSvc),
		service.WithOperationTimeout(cfg.OperationTimeout),
	)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	nocHandler := handler.NewNOCHandler(nocSvc, export.NewCSVExporter())
	certHandler := handler.NewCertificateHandler(certSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Public certificate surface: verification and signed-token downloads.
	api.GET("/certificates/verify", certHandler.Verify)
	api.GET("/certificates/download/:token", certHandler.DownloadByToken)

	protected := api.Group("", middleware.JWT(authSvc))

	noc := protected.Group("/noc-requests")
	noc.POST("", nocHandler.Create)
	noc.GET("/mine", nocHandler.ListMine)
	noc.GET("/pending", middleware.RequireCapability(models.CapabilityReviewNOC), nocHandler.ListPending)
	noc.GET("/export",
		middleware.RequireCapability(models.CapabilityExportData),
		middleware.Audit(userRepo, "noc.export", "noc_request"),
		nocHandler.ExportCSV,
	)
	noc.GET("/:id", nocHandler.Get)
	noc.POST("/:id/review", nocHandler.Review)

	certs := protected.Group("/certificates")
	certs.POST("/requests/:id/issue", middleware.RequireCapability(models.CapabilityIssueCertificate), certHandler.Issue)
	certs.GET("/:id/download", certHandler.Download)
	certs.GET("/:id/download-link", certHandler.DownloadLink)

	if cfg.Dashboard.Enabled {
		protected.GET("/dashboard/stats", middleware.RequireCapability(models.CapabilityReadAllNOC), dashboardHandler.Stats)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

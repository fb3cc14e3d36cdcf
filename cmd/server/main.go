package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/internal/app/controller"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/internal/db"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
	"github.com/ikkim/coupang-partners-backend/internal/router"
	"github.com/ikkim/coupang-partners-backend/internal/scheduler"
	"github.com/ikkim/coupang-partners-backend/internal/storage"
	"github.com/ikkim/coupang-partners-backend/internal/websocket"
	"github.com/ikkim/coupang-partners-backend/pkg/coupang"
	"github.com/ikkim/coupang-partners-backend/pkg/llm"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"github.com/ikkim/coupang-partners-backend/pkg/naver"
	"github.com/ikkim/coupang-partners-backend/pkg/redis"
	"github.com/ikkim/coupang-partners-backend/pkg/trends"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const lockTTL = 2 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat != "json",
		Service:     "coupang-partners",
	})

	logger.Info("Starting Coupang Partners pipeline server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("Unknown timezone, falling back to UTC", map[string]interface{}{
			"timezone": cfg.Timezone,
		})
		loc = time.UTC
	}

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	conn := db.GetDB()

	// Redis 는 선택 사항 (없으면 프로세스 내 잠금/차단 목록)
	var locker redis.Locker = redis.NewLocalLocker()
	var tokenStore redis.TokenStore = redis.NewMemoryTokenStore()
	if cfg.Redis.Host != "" {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, using in-process locks", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			locker = redis.NewLocker(redis.GetClient(), lockTTL)
			tokenStore = redis.NewTokenStore(redis.GetClient())
		}
	}

	m := metrics.Default()

	// 이벤트: 대시보드 WebSocket + (설정 시) Kafka
	hub := websocket.NewHub()
	go hub.Run()
	publishers := []events.Publisher{hub}
	if len(cfg.Kafka.Brokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		logger.Info("Kafka event publisher enabled", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		})
	}
	publisher := events.NewMultiPublisher(publishers...)
	defer publisher.Close()

	// External clients
	registry := llm.NewRegistry(
		llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.AI.OpenAIAPIKey,
			BaseURL: cfg.AI.OpenAIBaseURL,
			Timeout: cfg.AI.RequestTimeout,
		}),
		llm.NewGeminiClient(llm.GeminiConfig{
			APIKey:  cfg.AI.GeminiAPIKey,
			BaseURL: cfg.AI.GeminiBaseURL,
			Timeout: cfg.AI.RequestTimeout,
		}),
	)
	naverClient := naver.NewClient(naver.Config{
		ClientID:     cfg.Naver.ClientID,
		ClientSecret: cfg.Naver.ClientSecret,
		BlogID:       cfg.Naver.BlogID,
		RedirectURI:  cfg.Naver.RedirectURI,
		APIBaseURL:   cfg.Naver.APIBaseURL,
		AuthBaseURL:  cfg.Naver.AuthBaseURL,
		Timeout:      cfg.Naver.Timeout,
	})
	scraper := coupang.NewScraper(cfg.Coupang.ScrapeTimeout, "")

	source, err := trends.New(trends.Options{
		Kind:     cfg.Trends.Source,
		RSSURL:   cfg.Trends.RSSURL,
		XLSXPath: cfg.Trends.XLSXPath,
		Category: cfg.Trends.Category,
		DataLab:  naverClient,
	})
	if err != nil {
		logger.Fatal("Failed to configure keyword source", err)
	}

	var archiver service.PostArchiver
	if cfg.S3.ArchiveEnabled {
		archiver = storage.NewS3Archiver(context.Background(), storage.S3Options{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			BaseURL:         cfg.S3.BaseURL,
		})
	}

	// Initialize repositories
	keywordRepo := repository.NewKeywordRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	postRepo := repository.NewPostRepository(conn)
	budgetRepo := repository.NewBudgetRepository(conn)
	tokenRepo := repository.NewNaverTokenRepository(conn)
	appConfigRepo := repository.NewAppConfigRepository(conn)

	// Initialize services
	aiConfigService := service.NewAIConfigService(appConfigRepo, registry, cfg.AI)
	if err := aiConfigService.Load(); err != nil {
		logger.Fatal("Failed to load AI config", err)
	}

	retry := llm.DefaultRetryPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Retry.MaxAttempts
		retry.BaseDelay = cfg.Retry.BaseDelay
		retry.MaxDelay = cfg.Retry.MaxDelay
	}

	budgetService := service.NewBudgetService(budgetRepo, conn, cfg.Budget, loc, publisher, m)
	aiService := service.NewAIService(aiConfigService, budgetService, retry, cfg.AI.RequestTimeout, m)

	var finder service.TopProductFinder
	var specs service.SpecFetcher
	if cfg.Coupang.ScrapeEnabled {
		finder = scraper
		specs = scraper
	}

	keywordService := service.NewKeywordService(keywordRepo, conn, source, locker, loc, publisher, m)
	productService := service.NewProductService(productRepo, keywordRepo, aiService, finder, cfg.AI.SmallMaxTokens, publisher, m)
	affiliateService := service.NewAffiliateService(productRepo, publisher, m)
	draftService := service.NewDraftService(productRepo, keywordRepo, postRepo, aiService, specs, cfg.AI.WriterMaxTokens, publisher, m)
	publishService := service.NewPublishService(postRepo, tokenRepo, naverClient, archiver, locker, loc, publisher, m)
	statsService := service.NewStatsService(postRepo, productRepo, budgetService)
	adminService := service.NewAdminService(conn, keywordRepo, tokenRepo, keywordService, aiConfigService, naverClient, locker)
	authService := service.NewAuthService(
		cfg.Admin,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		tokenStore,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	keywordController := controller.NewKeywordController(keywordService)
	productController := controller.NewProductController(productService)
	affiliateController := controller.NewAffiliateController(affiliateService)
	postController := controller.NewPostController(draftService, publishService)
	metricsController := controller.NewMetricsController(statsService, aiService)
	adminController := controller.NewAdminController(adminService)
	eventsController := controller.NewEventsController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, authService)

	// Setup router
	r := router.NewRouter(
		authController,
		keywordController,
		productController,
		affiliateController,
		postController,
		metricsController,
		adminController,
		eventsController,
		authMiddleware,
		m,
		promhttp.Handler(),
		cfg,
	)
	engine := r.Setup()

	// 예약 발행 / 일일 키워드 수집 / 예산 예약 정리
	jobs := scheduler.NewPipelineScheduler(cfg.Scheduler, loc, publishService, keywordService, budgetService)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	jobs.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/internal/app/controller"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
)

type Router struct {
	authController      *controller.AuthController
	keywordController   *controller.KeywordController
	productController   *controller.ProductController
	affiliateController *controller.AffiliateController
	postController      *controller.PostController
	metricsController   *controller.MetricsController
	adminController     *controller.AdminController
	eventsController    *controller.EventsController
	authMiddleware      *middleware.AuthMiddleware
	metrics             *metrics.PipelineMetrics
	metricsHandler      http.Handler
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	keywordController *controller.KeywordController,
	productController *controller.ProductController,
	affiliateController *controller.AffiliateController,
	postController *controller.PostController,
	metricsController *controller.MetricsController,
	adminController *controller.AdminController,
	eventsController *controller.EventsController,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.PipelineMetrics,
	metricsHandler http.Handler,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		keywordController:   keywordController,
		productController:   productController,
		affiliateController: affiliateController,
		postController:      postController,
		metricsController:   metricsController,
		adminController:     adminController,
		eventsController:    eventsController,
		authMiddleware:      authMiddleware,
		metrics:             m,
		metricsHandler:      metricsHandler,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.config.Server.GinMode != "" {
		gin.SetMode(r.config.Server.GinMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(r.metrics))
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Coupang Partners pipeline is running",
		})
	})

	if r.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
		}

		// 운영자 전용 (로그인 필요)
		api := v1.Group("")
		api.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole(service.RoleAdmin))
		{
			keywords := api.Group("/keywords")
			{
				keywords.POST("/fetch", r.keywordController.FetchKeywords)
				keywords.GET("", r.keywordController.ListKeywords)
			}

			products := api.Group("/products")
			{
				products.POST("/recommend/:keyword_id", r.productController.Recommend)
				products.GET("", r.productController.ListProducts)
				products.GET("/:id", r.productController.GetProduct)
			}

			affiliate := api.Group("/affiliate")
			{
				affiliate.POST("/map", r.affiliateController.Map)
				affiliate.GET("/pending", r.affiliateController.Pending)
			}

			posts := api.Group("/posts")
			{
				posts.POST("/draft", r.postController.Draft)
				posts.POST("/draft/compare", r.postController.DraftCompare)
				posts.POST("/publish", r.postController.Publish)
				posts.GET("", r.postController.ListPosts)
				posts.GET("/:id", r.postController.GetPost)
				posts.GET("/:id/archive", r.postController.ArchiveURL)
			}

			stats := api.Group("/metrics")
			{
				stats.GET("/posts", r.metricsController.PostMetrics)
				stats.GET("/products", r.metricsController.ProductMetrics)
				stats.GET("/budget", r.metricsController.BudgetMetrics)
			}

			api.GET("/diagnostics/ai", r.metricsController.AIDiagnostics)

			naver := api.Group("/naver")
			{
				naver.GET("/status", r.adminController.NaverStatus)
				naver.GET("/login-url", r.adminController.NaverLoginURL)
			}

			admin := api.Group("/admin")
			{
				admin.GET("/ai-config", r.adminController.GetAIConfig)
				admin.POST("/ai-config", r.adminController.UpdateAIConfig)
				admin.POST("/naver-token", r.adminController.StoreNaverToken)
				admin.POST("/reset-db", middleware.RequireConfirm(), r.adminController.ResetDB)
				admin.DELETE("/keywords", middleware.RequireConfirm(), r.adminController.DeleteKeywords)
				admin.POST("/dedup-keywords", middleware.RequireConfirm(), r.adminController.DedupKeywords)
			}

			// 토큰은 ?token= 으로 전달
			api.GET("/events/ws", r.eventsController.Stream)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

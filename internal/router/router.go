// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/handlers"
	"github.com/javajoker/highdeium-backend/internal/middleware"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

const version = "1.0.0"

// Dependencies are the external collaborators. Nil fields fall back to the
// production implementations built from the configuration.
type Dependencies struct {
	Gateway  services.PaymentGateway
	Verifier services.IdentityVerifier
	Storage  *services.StorageService
}

func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Gateway == nil {
		deps.Gateway = services.NewStripeGateway(cfg.Payment.StripeSecretKey, cfg.Payment.StripeWebhookSecret)
	}
	if deps.Verifier == nil {
		deps.Verifier = services.NewGoogleVerifier(cfg.Identity.GoogleClientID)
	}
	if deps.Storage == nil {
		storage, err := services.NewStorageService(cfg.AWS, fmt.Sprintf("http://%s:%s", cfg.Server.Host, cfg.Server.Port))
		if err != nil {
			return nil, err
		}
		deps.Storage = storage
	}

	// Initialize services
	purchaseService := services.NewPurchaseService(db)
	userService := services.NewUserService(db)
	authService := services.NewAuthService(userService, deps.Verifier, cfg)
	catalogService := services.NewCatalogService(db, cfg.Catalog, purchaseService)
	authoringService := services.NewAuthoringService(db, deps.Storage)
	engagementService := services.NewEngagementService(db, cfg.Catalog.MaxCommentLength)
	notificationService := services.NewNotificationService(db, cfg.Email, cfg.Frontend.BaseURL)
	paymentService := services.NewPaymentService(db, cfg.Payment, deps.Gateway, purchaseService, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService, catalogService, cfg.Catalog)
	bookHandler := handlers.NewBookHandler(catalogService, authoringService, cfg.Catalog)
	chapterHandler := handlers.NewChapterHandler(catalogService, authoringService)
	mediaHandler := handlers.NewMediaHandler(authoringService, deps.Storage)
	engagementHandler := handlers.NewEngagementHandler(engagementService, cfg.Catalog)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	// Runs before auth, so callers are counted per client IP.
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", healthHandler(db))

	v1 := r.Group("/v1")
	{
		v1.GET("/genres", bookHandler.GetGenres)

		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/google", authHandler.GoogleLogin)
			auth.POST("/demo", authHandler.DemoLogin)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Book routes
		books := v1.Group("/books")
		{
			books.GET("", middleware.OptionalAuth(), bookHandler.GetBooks)
			books.GET("/trending", bookHandler.GetTrendingBooks)
			books.GET("/:id", middleware.OptionalAuth(), bookHandler.GetBook)
			books.GET("/:id/chapters", middleware.OptionalAuth(), chapterHandler.GetChapters)
			books.GET("/:id/comments", middleware.OptionalAuth(), engagementHandler.GetComments)

			// Authenticated routes
			protected := books.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", bookHandler.CreateBook)
				protected.PUT("/:id", bookHandler.UpdateBook)
				protected.DELETE("/:id", bookHandler.DeleteBook)
				protected.POST("/:id/chapters", chapterHandler.CreateChapter)
				protected.POST("/:id/media", mediaHandler.CreateMedia)
				protected.POST("/:id/like", engagementHandler.ToggleLike)
				protected.POST("/:id/bookmark", engagementHandler.ToggleBookmark)
				protected.POST("/:id/comments", engagementHandler.CreateComment)
			}
		}

		chapters := v1.Group("/chapters")
		chapters.Use(middleware.AuthRequired())
		{
			chapters.PUT("/:id", chapterHandler.UpdateChapter)
			chapters.DELETE("/:id", chapterHandler.DeleteChapter)
		}

		media := v1.Group("/media")
		media.Use(middleware.AuthRequired())
		{
			media.POST("/presign", middleware.UploadRateLimit(), mediaHandler.PresignUpload)
			media.DELETE("/:id", mediaHandler.DeleteMedia)
		}

		comments := v1.Group("/comments")
		comments.Use(middleware.AuthRequired())
		{
			comments.DELETE("/:id", engagementHandler.DeleteComment)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/stats", userHandler.GetUserStats)
			users.GET("/:id/books", middleware.OptionalAuth(), userHandler.GetUserBooks)

			// Authenticated user routes
			protected := users.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.PUT("/profile", userHandler.UpdateProfile)
				protected.GET("/:id/bookmarks", userHandler.GetUserBookmarks)
				protected.GET("/:id/purchases", userHandler.GetUserPurchases)
				protected.POST("/:id/follow", engagementHandler.ToggleFollow)
			}
		}

		// Payment routes
		payments := v1.Group("/payments")
		{
			// Signed by the processor, not by a user token.
			payments.POST("/webhook", paymentHandler.Webhook)

			protected := payments.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/intent", paymentHandler.CreatePaymentIntent)
				protected.POST("/purchase", paymentHandler.ConfirmPurchase)
			}
		}
	}

	return r, nil
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":  status,
			"version": version,
		})
	}
}

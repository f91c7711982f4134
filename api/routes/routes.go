package routes

import (
	"time"

	"github.com/cardvault/cardvault-backend/internal/config"
	"github.com/cardvault/cardvault-backend/internal/handlers"
	"github.com/cardvault/cardvault-backend/internal/metrics"
	"github.com/cardvault/cardvault-backend/internal/middleware"
	"github.com/cardvault/cardvault-backend/pkg/cache"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies carries the wired handlers and shared infrastructure
// the router mounts.
type HandlerDependencies struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Card        *handlers.CardHandler
	Transaction *handlers.TransactionHandler
	Reward      *handlers.RewardHandler
	Monitoring  *handlers.MonitoringHandler
	Store       *cache.Cache
	Collector   *metrics.Collector
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps *HandlerDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(deps.Collector.Middleware())

	// Public routes
	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			otpLimit := middleware.RateLimit(deps.Store, "otp", 5, time.Minute)
			auth.POST("/send-otp", otpLimit, deps.Auth.SendOTP)
			auth.POST("/verify-otp", deps.Auth.VerifyOTP)
			auth.POST("/login/send-otp", otpLimit, deps.Auth.LoginSendOTP)
			auth.POST("/login/verify-otp", deps.Auth.LoginVerifyOTP)
		}

		public.GET("/monitoring/health", deps.Monitoring.Health)
	}

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		auth := protected.Group("/auth")
		{
			auth.GET("/profile", deps.Auth.Profile)
			auth.PUT("/profile", deps.User.UpdateProfile)
			auth.PUT("/password", deps.User.ChangePassword)
		}

		cards := protected.Group("/cards")
		{
			cards.GET("", deps.Card.List)
			cards.POST("", deps.Card.Add)
			cards.DELETE("/:id", deps.Card.Delete)
		}

		// Read endpoints are cached per user; the cache middleware runs
		// after JWT auth so the subject is known when the key is built.
		cached := middleware.CacheResponse(deps.Store, 30*time.Second)

		transactions := protected.Group("/transactions")
		{
			transactions.GET("", cached, deps.Transaction.List)
			transactions.GET("/stats", cached, deps.Transaction.Stats)
			transactions.GET("/:id", deps.Transaction.Get)
			transactions.POST("/purchase", deps.Transaction.Purchase)
			transactions.POST("/payment", deps.Transaction.Payment)
		}

		rewards := protected.Group("/rewards")
		{
			rewards.GET("/points", cached, deps.Reward.Points)
			rewards.POST("/redeem", deps.Reward.Redeem)
			rewards.GET("/history", deps.Reward.History)
		}

		protected.GET("/monitoring/metrics", deps.Monitoring.Metrics)
	}

	return router
}

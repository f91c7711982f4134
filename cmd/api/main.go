package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardvault/cardvault-backend/api/routes"
	"github.com/cardvault/cardvault-backend/internal/config"
	"github.com/cardvault/cardvault-backend/internal/handlers"
	"github.com/cardvault/cardvault-backend/internal/logging"
	"github.com/cardvault/cardvault-backend/internal/metrics"
	"github.com/cardvault/cardvault-backend/internal/repositories"
	mongorepo "github.com/cardvault/cardvault-backend/internal/repositories/mongodb"
	"github.com/cardvault/cardvault-backend/internal/services"
	"github.com/cardvault/cardvault-backend/pkg/cache"
	"github.com/cardvault/cardvault-backend/pkg/mongodb"
	"github.com/cardvault/cardvault-backend/pkg/smsgateway"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Setup(cfg)

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	store, err := cache.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer store.Close()

	// Repositories
	var userRepo repositories.UserRepository = mongorepo.NewUserRepository(db)
	var otpRepo repositories.OTPRepository = mongorepo.NewOTPRepository(db)
	var cardRepo repositories.CardRepository = mongorepo.NewCardRepository(db)
	var txRepo repositories.TransactionRepository = mongorepo.NewTransactionRepository(db)
	var eventRepo repositories.RewardEventRepository = mongorepo.NewRewardEventRepository(db)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndexes()
	for name, ensure := range map[string]func(context.Context) error{
		"users":         userRepo.EnsureIndexes,
		"otps":          otpRepo.EnsureIndexes,
		"transactions":  txRepo.EnsureIndexes,
		"reward_events": eventRepo.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			log.Fatalf("Failed to ensure %s indexes: %v", name, err)
		}
	}

	gateway := smsgateway.FromConfig(cfg)

	// Services
	authService := services.NewAuthService(userRepo, otpRepo, gateway, cfg)
	userService := services.NewUserService(userRepo)
	cardService := services.NewCardService(cardRepo)
	rewardService := services.NewRewardService(userRepo, eventRepo)
	txService := services.NewTransactionService(txRepo, cardRepo, rewardService)

	collector := metrics.NewCollector()

	deps := &routes.HandlerDependencies{
		Auth:        handlers.NewAuthHandler(authService),
		User:        handlers.NewUserHandler(userService),
		Card:        handlers.NewCardHandler(cardService),
		Transaction: handlers.NewTransactionHandler(txService),
		Reward:      handlers.NewRewardHandler(rewardService),
		Monitoring:  handlers.NewMonitoringHandler(mongoClient, store, collector, userService),
		Store:       store,
		Collector:   collector,
	}

	router := routes.SetupRouter(cfg, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("server exiting")
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideeockus/capybanse-service/internal/app"
	"github.com/ideeockus/capybanse-service/internal/config"
	"github.com/ideeockus/capybanse-service/internal/handlers"
	"github.com/ideeockus/capybanse-service/internal/messaging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	rpc := handlers.NewRPC(application.Services.Recommendation, application.Logger)

	if err := application.Bus.ConsumeRPC(ctx, messaging.QueueRecommendationsByUser, rpc.RecommendByUser); err != nil {
		log.Fatalf("Failed to consume %s: %v", messaging.QueueRecommendationsByUser, err)
	}
	if err := application.Bus.ConsumeRPC(ctx, messaging.QueueSetUserDescription, rpc.SetUserDescription); err != nil {
		log.Fatalf("Failed to consume %s: %v", messaging.QueueSetUserDescription, err)
	}

	application.StartMonitoring()
	application.Logger.Info("Recommendation service RPC started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ideeockus/capybanse-service/internal/app"
	"github.com/ideeockus/capybanse-service/internal/config"
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

	for _, queue := range messaging.EventQueues {
		source := strings.TrimPrefix(queue, "events.")
		handler := func(ctx context.Context, body []byte) error {
			err := application.Services.Ingest.HandleEvent(ctx, body)
			status := "ok"
			if err != nil {
				status = "failed"
			}
			application.Metrics.IngestedEvents.WithLabelValues(source, status).Inc()
			return err
		}
		if err := application.Bus.Consume(ctx, queue, handler); err != nil {
			log.Fatalf("Failed to consume %s: %v", queue, err)
		}
	}

	application.StartMonitoring()
	application.Logger.Info("Event handler started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

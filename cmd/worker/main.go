package main

import (
	"context"
	"log"

	"github.com/jobdeck/admin-backend/internal/config"
	"github.com/jobdeck/admin-backend/internal/email"
	"github.com/jobdeck/admin-backend/internal/logging"
	"github.com/jobdeck/admin-backend/internal/queue"
)

func main() {
	cfg := config.Load()

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	sesService, err := email.NewSESService(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	worker := queue.NewWorker(&cfg.Redis, sesService)

	log.Println("Starting queue worker...")
	if err := worker.Start(); err != nil {
		log.Fatalf("Worker failed to start: %v", err)
	}
}

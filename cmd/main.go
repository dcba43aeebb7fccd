package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jobdeck/admin-backend/internal/config"
	"github.com/jobdeck/admin-backend/internal/container"
	"github.com/jobdeck/admin-backend/internal/logging"
	"github.com/jobdeck/admin-backend/internal/metrics"
)

func main() {
	cfg := config.Load()

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	metrics.Init()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Cleanup()

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Server.Port)
	s := &http.Server{
		Handler: c.Server.Router(cfg),
		Addr:    addr,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logging.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server shutdown failed", "error", err)
		}
		c.Cleanup()
		os.Exit(0)
	}()

	logging.Info("Server starting", "addr", addr)
	log.Fatal(s.ListenAndServe())
}

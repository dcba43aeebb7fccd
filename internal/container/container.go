package container

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/jobdeck/admin-backend/internal/api"
	"github.com/jobdeck/admin-backend/internal/config"
	"github.com/jobdeck/admin-backend/internal/email"
	"github.com/jobdeck/admin-backend/internal/guard"
	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/jobs"
	"github.com/jobdeck/admin-backend/internal/logging"
	"github.com/jobdeck/admin-backend/internal/queue"
	"github.com/jobdeck/admin-backend/internal/registry"
	"github.com/jobdeck/admin-backend/internal/session"
	"github.com/jobdeck/admin-backend/internal/upstream"
)

type Container struct {
	Config      *config.Config
	RedisClient *redis.Client
	Queue       *queue.TaskQueue
	Upstream    *upstream.Client
	Sessions    *session.Service
	Registries  *registry.Manager
	Guards      *guard.Manager
	Server      *api.Server
	Worker      *queue.Worker
}

func New(cfg *config.Config) (*Container, error) {
	taskQueue, err := queue.NewQueue(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	// Two separate Redis connection pools: asynq manages its own, this
	// client serves the session revocation denylist.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	verifier, err := session.NewVerifier([]byte(cfg.JWT.SigningKey), cfg.JWT.Issuer)
	if err != nil {
		return nil, err
	}
	sessions := session.NewService(verifier, session.NewRedisStore(redisClient))

	upstreamClient := upstream.New(cfg.Upstream)

	classifier := identity.NewClassifier(cfg.Admin.BootstrapEmails)
	registries := registry.NewManager(classifier, upstreamClient, cfg.Admin.RegistryFreshFor, cfg.Admin.RegistryIdleTTL)
	guards := guard.NewManager(cfg.Admin.GuardIdleTTL)

	sesService, err := email.NewSESService(context.Background(), cfg.AWS)
	if err != nil {
		return nil, err
	}

	worker := queue.NewWorker(&cfg.Redis, sesService)

	server := api.NewServer(sessions, registries, guards, jobs.NewGateway(upstreamClient), taskQueue, cfg.Admin.GuardInterval)

	logging.Info("Container initialized",
		"upstream", cfg.Upstream.BaseURL,
		"redis", cfg.Redis.Addr)

	return &Container{
		Config:      cfg,
		RedisClient: redisClient,
		Queue:       taskQueue,
		Upstream:    upstreamClient,
		Sessions:    sessions,
		Registries:  registries,
		Guards:      guards,
		Server:      server,
		Worker:      worker,
	}, nil
}

func (c *Container) Cleanup() {
	if c.Server != nil {
		c.Server.Close()
		logging.Info("Server rate limiter stopped")
	}
	if c.Guards != nil {
		c.Guards.Close()
		logging.Info("Guards stopped")
	}
	if c.Registries != nil {
		c.Registries.Close()
		logging.Info("Registry manager stopped")
	}
	if c.Queue != nil {
		c.Queue.Close()
		logging.Info("Queue client closed")
	}
	if c.Worker != nil {
		c.Worker.Close()
		logging.Info("Worker closed")
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
		logging.Info("Redis client closed")
	}
}

package main

import (
	"context"
	"log"

	"github.com/peakform/coach-backend/internal/aws"
	"github.com/peakform/coach-backend/internal/cache"
	"github.com/peakform/coach-backend/internal/config"
	"github.com/peakform/coach-backend/internal/database"
	"github.com/peakform/coach-backend/internal/logging"
	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/peakform/coach-backend/internal/queue"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	emailService, err := aws.NewEmailService(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	featureCache := cache.New(redisClient, db.Queries())
	hooks := permissions.Hooks{Cache: featureCache}

	audit := permissions.NewAuditLogger(db.Queries())
	grants := permissions.NewGrantService(db.Pool(), db.Queries(), audit, hooks)
	requests := permissions.NewRequestService(db.Pool(), db.Queries(), grants, audit, hooks, cfg.Permissions.RequestTTL)

	worker := queue.NewWorker(&cfg.Redis, emailService, requests)

	log.Println("Starting queue worker...")
	if err := worker.Start(); err != nil {
		log.Fatalf("Worker failed to start: %v", err)
	}
}

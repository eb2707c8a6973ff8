package container

import (
	"context"

	"github.com/peakform/coach-backend/internal/api"
	"github.com/peakform/coach-backend/internal/auth"
	"github.com/peakform/coach-backend/internal/aws"
	"github.com/peakform/coach-backend/internal/cache"
	"github.com/peakform/coach-backend/internal/config"
	"github.com/peakform/coach-backend/internal/database"
	"github.com/peakform/coach-backend/internal/logging"
	"github.com/peakform/coach-backend/internal/notifications"
	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/peakform/coach-backend/internal/queue"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Config        *config.Config
	Database      *database.Database
	Queue         *queue.TaskQueue
	RedisClient   *redis.Client
	FeatureCache  *cache.FeatureAccessCache
	Dispatcher    *notifications.NotificationDispatcher
	Registry      *permissions.Registry
	Grants        *permissions.GrantService
	Requests      *permissions.RequestService
	Presets       *permissions.PresetService
	Admin         *permissions.AdminService
	Audit         *permissions.AuditLogger
	Authenticator *auth.Authenticator
	Server        *api.Server
	Worker        *queue.Worker
}

func New(cfg config.Config) (*Container, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	taskQueue, err := queue.NewQueue(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	// Two separate Redis connection pools: the asynq task queue manages
	// its own, and this client backs the feature-access cache.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	jwtService, err := auth.NewJWTService([]byte(cfg.JWT.SigningKey), cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		return nil, err
	}
	authenticator := auth.NewAuthenticator(jwtService, db.Queries())

	emailService, err := aws.NewEmailService(context.Background(), cfg.AWS)
	if err != nil {
		return nil, err
	}

	templates, err := notifications.LoadTemplates("templates/email")
	if err != nil {
		return nil, err
	}

	featureCache := cache.New(redisClient, db.Queries())
	notificationSvc := notifications.NewNotificationService(db.Queries())
	dispatcher := notifications.NewNotificationDispatcher(
		notificationSvc,
		db.Queries(),
		taskQueue,
		templates,
		notifications.NewEmailLookupFunc(db.Queries()),
	)

	hooks := permissions.Hooks{Cache: featureCache, Events: dispatcher}

	audit := permissions.NewAuditLogger(db.Queries())
	grants := permissions.NewGrantService(db.Pool(), db.Queries(), audit, hooks)
	registry := permissions.NewRegistry(db.Pool(), db.Queries(), audit)
	requests := permissions.NewRequestService(db.Pool(), db.Queries(), grants, audit, hooks, cfg.Permissions.RequestTTL)
	presets := permissions.NewPresetService(db.Pool(), db.Queries(), grants, audit)
	admin := permissions.NewAdminService(db.Pool(), db.Queries(), grants, presets, audit, hooks)

	worker := queue.NewWorker(&cfg.Redis, emailService, requests)

	server := api.NewServer(db, registry, grants, requests, presets, admin, audit,
		notificationSvc, authenticator, &cfg.CORS)

	logging.Info("Connected to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port)

	return &Container{
		Config:        &cfg,
		Database:      db,
		Queue:         taskQueue,
		RedisClient:   redisClient,
		FeatureCache:  featureCache,
		Dispatcher:    dispatcher,
		Registry:      registry,
		Grants:        grants,
		Requests:      requests,
		Presets:       presets,
		Admin:         admin,
		Audit:         audit,
		Authenticator: authenticator,
		Server:        server,
		Worker:        worker,
	}, nil
}

func (c *Container) Cleanup() {
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
	if c.Database != nil {
		c.Database.Close()
		logging.Info("Database connection closed")
	}
}

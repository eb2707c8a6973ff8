package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/peakform/coach-backend/internal/aws"
	"github.com/peakform/coach-backend/internal/config"
	"github.com/peakform/coach-backend/internal/logging"
	"github.com/peakform/coach-backend/internal/permissions"
)

type TaskQueue struct {
	client *asynq.Client
}

func NewQueue(cfg *config.RedisConfig) (*TaskQueue, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Activate and test the connection
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis queue: %w", err)
	}

	logging.Info("Connected to Redis task queue")

	return &TaskQueue{client: client}, nil
}

func (q *TaskQueue) Enqueue(taskType string, data interface{}) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	task := asynq.NewTask(taskType, payload)

	t, err := q.client.Enqueue(task)

	return t, err
}

func (q *TaskQueue) Close() error {
	return q.client.Close()
}

const (
	TypeEmailDelivery  = "email:delivery"
	TypeExpireRequests = "permissions:expire_requests"
)

type EmailDeliveryPayload struct {
	To      string
	Subject string
	Body    string
}

type Worker struct {
	server       *asynq.Server
	scheduler    *asynq.Scheduler
	emailService *aws.EmailService
	requests     *permissions.RequestService
}

func NewWorker(cfg *config.RedisConfig, emailService *aws.EmailService, requests *permissions.RequestService) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logging.Error("process task failed", "type", task.Type(), "payload", string(task.Payload()), "error", err)
			}),
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, nil)

	return &Worker{
		server:       server,
		scheduler:    scheduler,
		emailService: emailService,
		requests:     requests,
	}
}

func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, w.HandleEmailDelivery)
	mux.HandleFunc(TypeExpireRequests, w.HandleExpireRequests)

	if _, err := w.scheduler.Register("@every 1h", asynq.NewTask(TypeExpireRequests, nil)); err != nil {
		return fmt.Errorf("failed to register request expiry schedule: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return w.server.Start(mux)
}

func (w *Worker) Close() {
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	if w.server != nil {
		w.server.Shutdown()
	}
}

func (w *Worker) HandleEmailDelivery(ctx context.Context, t *asynq.Task) error {
	var p EmailDeliveryPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logging.Info("Sending email", "to", p.To, "subject", p.Subject)
	if err := w.emailService.SendEmail(ctx, p.To, p.Subject, p.Body); err != nil {
		return fmt.Errorf("emailService.SendEmail failed: %w", err)
	}

	return nil
}

func (w *Worker) HandleExpireRequests(ctx context.Context, t *asynq.Task) error {
	count, err := w.requests.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("requests.ExpireStale failed: %w", err)
	}
	if count > 0 {
		logging.Info("Expired pending permission requests", "count", count)
	}
	return nil
}

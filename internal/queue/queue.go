package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jobdeck/admin-backend/internal/config"
	"github.com/jobdeck/admin-backend/internal/logging"
)

const (
	TypeAccessRevokedNotice = "access:revoked_notice"
)

// AccessRevokedPayload tells an admin their delegated access to a company
// ended while they were working in it.
type AccessRevokedPayload struct {
	Email       string `json:"email"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

type TaskQueue struct {
	client *asynq.Client
}

func NewQueue(cfg *config.RedisConfig) (*TaskQueue, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis queue: %w", err)
	}

	logging.Info("Connected to Redis task queue")

	return &TaskQueue{client: client}, nil
}

func (q *TaskQueue) Enqueue(taskType string, data any) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return q.client.Enqueue(asynq.NewTask(taskType, payload))
}

// EnqueueAccessRevoked queues a revocation notice email.
func (q *TaskQueue) EnqueueAccessRevoked(email, companyID, companyName string) error {
	_, err := q.Enqueue(TypeAccessRevokedNotice, AccessRevokedPayload{
		Email:       email,
		CompanyID:   companyID,
		CompanyName: companyName,
	})
	return err
}

func (q *TaskQueue) Close() error {
	return q.client.Close()
}

// EmailSender sends a plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type Worker struct {
	server *asynq.Server
	email  EmailSender
}

func NewWorker(cfg *config.RedisConfig, email EmailSender) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
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

	return &Worker{
		server: server,
		email:  email,
	}
}

func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAccessRevokedNotice, w.HandleAccessRevokedNotice)

	return w.server.Start(mux)
}

func (w *Worker) Close() {
	if w.server != nil {
		w.server.Shutdown()
	}
}

func (w *Worker) HandleAccessRevokedNotice(ctx context.Context, t *asynq.Task) error {
	var p AccessRevokedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	subject, body := renderAccessRevokedNotice(p)

	logging.Info("Sending revocation notice", "to", p.Email, "company_id", p.CompanyID)
	if err := w.email.SendEmail(ctx, p.Email, subject, body); err != nil {
		return fmt.Errorf("email.SendEmail failed: %w", err)
	}

	return nil
}

func renderAccessRevokedNotice(p AccessRevokedPayload) (subject, body string) {
	name := p.CompanyName
	if name == "" {
		name = p.CompanyID
	}
	subject = fmt.Sprintf("Your access to %s has been revoked", name)
	body = fmt.Sprintf(
		"Hello,\n\n"+
			"Your delegated admin access to %s was revoked while you were working in it.\n"+
			"Any unsaved changes for this company can no longer be submitted.\n\n"+
			"If you believe this is a mistake, contact the platform team.\n\n"+
			"JobDeck",
		name,
	)
	return subject, body
}

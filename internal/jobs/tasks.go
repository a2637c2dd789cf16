package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sokoni/duka-api/internal/notify"
	"github.com/sokoni/duka-api/internal/pricing"
)

// Task type names processed by the worker.
const (
	TypeEmailSend      = "email:send"
	TypeInactivityScan = "cart:inactivity_scan"
)

// QueueEmail is the queue transactional email sends run on.
const QueueEmail = "email"

// EmailPayload is the body of an email:send task.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Client enqueues background tasks for the worker.
type Client struct {
	Inner *asynq.Client
}

// EnqueueEmail schedules a templated email send.
func (c *Client) EnqueueEmail(ctx context.Context, to, subject, html string) error {
	if c == nil || c.Inner == nil {
		return errors.New("jobs: client not configured")
	}
	payload, err := json.Marshal(EmailPayload{To: to, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("jobs: encode email payload: %w", err)
	}
	task := asynq.NewTask(TypeEmailSend, payload)
	_, err = c.Inner.EnqueueContext(ctx, task, asynq.Queue(QueueEmail), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("jobs: enqueue email: %w", err)
	}
	return nil
}

// EnqueueOrderConfirmation implements checkout.ConfirmationEnqueuer.
func (c *Client) EnqueueOrderConfirmation(ctx context.Context, to, name, orderID string, total pricing.Money, placedAt time.Time) error {
	subject, html := notify.OrderConfirmation(name, orderID, total, placedAt)
	return c.EnqueueEmail(ctx, to, subject, html)
}

// NewInactivityScanTask builds the periodic scan task registered with the
// scheduler.
func NewInactivityScanTask() *asynq.Task {
	return asynq.NewTask(TypeInactivityScan, nil)
}

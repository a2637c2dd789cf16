package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/sokoni/duka-api/internal/common"
)

// EmailHandler delivers email:send tasks through the configured provider.
type EmailHandler struct {
	Mail   common.EmailSender
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h EmailHandler) ProcessTask(_ context.Context, t *asynq.Task) error {
	if h.Mail == nil {
		return errors.New("jobs: email sender not configured")
	}
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// A payload that cannot decode will never succeed; drop it.
		return fmt.Errorf("jobs: decode email payload: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.To) == "" {
		return fmt.Errorf("jobs: email task missing recipient: %w", asynq.SkipRetry)
	}
	if err := h.Mail.Send(payload.To, payload.Subject, payload.HTML); err != nil {
		return fmt.Errorf("jobs: send email: %w", err)
	}
	h.Logger.Info().Str("to", payload.To).Str("subject", payload.Subject).Msg("email delivered")
	return nil
}

// NewMux registers the worker's task handlers.
func NewMux(email EmailHandler, scan *Scanner) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeEmailSend, email)
	mux.Handle(TypeInactivityScan, scan)
	return mux
}

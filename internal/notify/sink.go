package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Severity classifies a user-facing notification.
type Severity string

const (
	// SeverityDefault marks informational notifications.
	SeverityDefault Severity = "default"
	// SeverityError marks failure notifications the user may act on.
	SeverityError Severity = "destructive"
	// SeveritySuccess marks notifications for completed operations.
	SeveritySuccess Severity = "success"
)

// Notification is a fire-and-forget user-facing message.
type Notification struct {
	Severity    Severity
	Title       string
	Description string
}

// Sink receives notifications emitted by cart and checkout operations.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// LogSink writes notifications to the structured log. The API shell uses it
// as the default sink; a UI shell would swap in its own toast surface.
type LogSink struct {
	Logger zerolog.Logger
}

// Notify implements the Sink interface.
func (s LogSink) Notify(_ context.Context, n Notification) {
	evt := s.Logger.Info()
	if n.Severity == SeverityError {
		evt = s.Logger.Warn()
	}
	evt.
		Str("severity", string(n.Severity)).
		Str("title", n.Title).
		Str("description", n.Description).
		Msg("notification")
}

// Recorder captures notifications in memory for assertions in tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify records the notification.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// Items returns a copy of the recorded notifications.
func (r *Recorder) Items() []Notification {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// NopSink discards all notifications.
type NopSink struct{}

// Notify implements the Sink interface.
func (NopSink) Notify(context.Context, Notification) {}

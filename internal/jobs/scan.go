package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/sokoni/duka-api/internal/notify"
	"github.com/sokoni/duka-api/internal/obs"
)

// SlotScanner is the view of the persistence layer the inactivity scan needs.
type SlotScanner interface {
	StaleSessions(ctx context.Context, cutoff time.Time) ([]string, error)
	Contact(ctx context.Context, session string) (string, error)
	MarkReminded(ctx context.Context, session string, ttl time.Duration) (bool, error)
	Prune(ctx context.Context, session string) error
}

// EmailEnqueuer schedules an email send from inside the scan.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, to, subject, html string) error
}

// Scanner walks the cart touch index on a schedule. Carts idle past
// RemindAfter get one reminder email when a contact is known; carts idle
// past PruneAfter are removed entirely.
type Scanner struct {
	Slots       SlotScanner
	Emails      EmailEnqueuer
	RemindAfter time.Duration
	PruneAfter  time.Duration
	Now         func() time.Time
	Logger      zerolog.Logger
}

func (s *Scanner) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ProcessTask implements asynq.Handler for the periodic scan task.
func (s *Scanner) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	return s.Run(ctx)
}

// Run executes one scan pass.
func (s *Scanner) Run(ctx context.Context) error {
	if s == nil || s.Slots == nil {
		return errors.New("jobs: scanner not configured")
	}
	remindAfter := s.RemindAfter
	if remindAfter <= 0 {
		remindAfter = 3 * 24 * time.Hour
	}
	pruneAfter := s.PruneAfter
	if pruneAfter <= 0 {
		pruneAfter = 30 * 24 * time.Hour
	}
	now := s.now()

	pruned := map[string]struct{}{}
	abandoned, err := s.Slots.StaleSessions(ctx, now.Add(-pruneAfter))
	if err != nil {
		return err
	}
	for _, session := range abandoned {
		if err := s.Slots.Prune(ctx, session); err != nil {
			s.Logger.Error().Err(err).Str("session", session).Msg("prune abandoned cart")
			continue
		}
		pruned[session] = struct{}{}
		obs.CartsPrunedTotal.Inc()
	}

	stale, err := s.Slots.StaleSessions(ctx, now.Add(-remindAfter))
	if err != nil {
		return err
	}
	for _, session := range stale {
		if _, gone := pruned[session]; gone {
			continue
		}
		contact, err := s.Slots.Contact(ctx, session)
		if err != nil {
			s.Logger.Error().Err(err).Str("session", session).Msg("load cart contact")
			continue
		}
		if contact == "" {
			continue
		}
		first, err := s.Slots.MarkReminded(ctx, session, pruneAfter)
		if err != nil {
			s.Logger.Error().Err(err).Str("session", session).Msg("mark cart reminded")
			continue
		}
		if !first {
			continue
		}
		subject, html := notify.InactivityReminder("", remindAfter)
		if s.Emails == nil {
			continue
		}
		if err := s.Emails.EnqueueEmail(ctx, contact, subject, html); err != nil {
			s.Logger.Error().Err(err).Str("session", session).Msg("enqueue inactivity reminder")
			continue
		}
		obs.ReminderEmailsTotal.Inc()
	}
	s.Logger.Info().
		Int("stale", len(stale)).
		Int("pruned", len(pruned)).
		Msg("inactivity scan complete")
	return nil
}

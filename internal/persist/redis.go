package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sokoni/duka-api/internal/cart"
)

// Slots hands out durable cart slots keyed by session. One slot holds the
// serialized line list for one browsing session; a sorted set tracks when
// each slot was last written so the inactivity scan can find stale carts.
type Slots struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	Now    func() time.Time
}

func (s *Slots) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Slots) prefix() string {
	if s == nil || s.Prefix == "" {
		return "duka"
	}
	return s.Prefix
}

func (s *Slots) cartKey(session string) string {
	return s.prefix() + ":cart:" + session
}

func (s *Slots) contactKey(session string) string {
	return s.prefix() + ":cart:" + session + ":contact"
}

func (s *Slots) remindedKey(session string) string {
	return s.prefix() + ":cart:" + session + ":reminded"
}

func (s *Slots) touchedKey() string {
	return s.prefix() + ":carts:touched"
}

// For returns the slot bound to the given session key.
func (s *Slots) For(session string) *RedisSlot {
	return &RedisSlot{slots: s, session: session}
}

// RedisSlot implements cart.Slot on a single Redis key.
type RedisSlot struct {
	slots   *Slots
	session string
}

// Load reads and decodes the stored line list. A missing key yields an empty
// cart; a corrupt payload yields an error the store logs and discards.
func (r *RedisSlot) Load(ctx context.Context) ([]cart.Line, error) {
	if r == nil || r.slots == nil || r.slots.Client == nil {
		return nil, nil
	}
	data, err := r.slots.Client.Get(ctx, r.slots.cartKey(r.session)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("persist: read slot: %w", err)
	}
	var lines []cart.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("persist: decode slot: %w", err)
	}
	return lines, nil
}

// Save overwrites the slot with the full line list and records the touch
// time. Only the lines are stored, never the visibility flag.
func (r *RedisSlot) Save(ctx context.Context, lines []cart.Line) error {
	if r == nil || r.slots == nil || r.slots.Client == nil {
		return errors.New("persist: slot not configured")
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("persist: encode slot: %w", err)
	}
	now := r.slots.now()
	pipe := r.slots.Client.TxPipeline()
	pipe.Set(ctx, r.slots.cartKey(r.session), data, r.slots.TTL)
	pipe.ZAdd(ctx, r.slots.touchedKey(), redis.Z{Score: float64(now.Unix()), Member: r.session})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("persist: write slot: %w", err)
	}
	return nil
}

// SaveContact stores the checkout contact email for the session so the
// inactivity reminder knows who to write to.
func (s *Slots) SaveContact(ctx context.Context, session, email string) error {
	if s == nil || s.Client == nil {
		return errors.New("persist: slots not configured")
	}
	return s.Client.Set(ctx, s.contactKey(session), email, s.TTL).Err()
}

// Contact returns the stored contact email for the session, if any.
func (s *Slots) Contact(ctx context.Context, session string) (string, error) {
	if s == nil || s.Client == nil {
		return "", nil
	}
	email, err := s.Client.Get(ctx, s.contactKey(session)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return email, err
}

// StaleSessions returns sessions whose slot was last written before the cutoff.
func (s *Slots) StaleSessions(ctx context.Context, cutoff time.Time) ([]string, error) {
	if s == nil || s.Client == nil {
		return nil, nil
	}
	return s.Client.ZRangeByScore(ctx, s.touchedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
}

// MarkReminded records that a reminder was sent for the session. It reports
// false when a reminder was already recorded, so the scan sends at most one.
func (s *Slots) MarkReminded(ctx context.Context, session string, ttl time.Duration) (bool, error) {
	if s == nil || s.Client == nil {
		return false, nil
	}
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return s.Client.SetNX(ctx, s.remindedKey(session), "1", ttl).Result()
}

// Prune removes every key belonging to an abandoned session.
func (s *Slots) Prune(ctx context.Context, session string) error {
	if s == nil || s.Client == nil {
		return nil
	}
	pipe := s.Client.TxPipeline()
	pipe.Del(ctx, s.cartKey(session), s.contactKey(session), s.remindedKey(session))
	pipe.ZRem(ctx, s.touchedKey(), session)
	_, err := pipe.Exec(ctx)
	return err
}

package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sokoni/duka-api/internal/catalog"
	"github.com/sokoni/duka-api/internal/notify"
	"github.com/sokoni/duka-api/internal/obs"
	"github.com/sokoni/duka-api/internal/pricing"
)

// Line is one cart entry pairing a variant with a quantity. The product and
// variant are stored as snapshots so the cart renders without a catalog
// round-trip.
type Line struct {
	Product  catalog.Product `json:"product"`
	Variant  catalog.Variant `json:"variant"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns the line's contribution to the cart total.
func (l Line) Subtotal() pricing.Money {
	return pricing.Money(l.Quantity) * l.Variant.Price
}

// Slot mirrors cart lines to durable storage. Implementations live in the
// persist package; the visibility flag is never part of the stored shape.
type Slot interface {
	Load(ctx context.Context) ([]Line, error)
	Save(ctx context.Context, lines []Line) error
}

// Config groups Store dependencies.
type Config struct {
	Slot   Slot
	Sink   notify.Sink
	Logger zerolog.Logger
}

// Store is the single source of truth for the cart within a session. It is
// constructed explicitly and passed by reference; there is no ambient
// singleton. Every mutation mirrors the line list to the slot and emits a
// user-facing notification through the sink.
type Store struct {
	mu    sync.Mutex
	lines []Line
	open  bool

	slot Slot
	sink notify.Sink
	log  zerolog.Logger
}

// New constructs a Store, rehydrating prior lines from the slot when
// present. Malformed persisted data is discarded: rehydration never fails
// the caller, it logs and starts empty.
func New(ctx context.Context, cfg Config) *Store {
	s := &Store{
		slot: cfg.Slot,
		sink: cfg.Sink,
		log:  cfg.Logger,
	}
	if s.sink == nil {
		s.sink = notify.NopSink{}
	}
	if s.slot != nil {
		lines, err := s.slot.Load(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("discard unreadable cart state")
		} else {
			s.lines = sanitize(lines)
		}
	}
	return s
}

// sanitize drops lines a well-formed cart can never contain. Stored state is
// trusted to match the in-memory shape; this only guards the invariants that
// mutations maintain (quantity >= 1, one line per variant).
func sanitize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || l.Variant.ID == "" {
			continue
		}
		if _, dup := seen[l.Variant.ID]; dup {
			continue
		}
		seen[l.Variant.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// AddItem appends a new line for the variant, or increments the existing
// line's quantity when the variant is already in the cart. Adding opens the
// cart. Stock clamping at add time is a UI concern, not enforced here.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, variant catalog.Variant, qty int) {
	if qty < 1 {
		qty = 1
	}
	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].Variant.ID == variant.ID {
			s.lines[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, Line{Product: product, Variant: variant, Quantity: qty})
	}
	s.open = true
	s.persistLocked(ctx)
	s.mu.Unlock()

	obs.CartMutationsTotal.WithLabelValues("add").Inc()
	if merged {
		s.sink.Notify(ctx, notify.Notification{
			Severity:    notify.SeverityDefault,
			Title:       "Cart updated",
			Description: fmt.Sprintf("Increased %s quantity", product.Name),
		})
		return
	}
	s.sink.Notify(ctx, notify.Notification{
		Severity:    notify.SeveritySuccess,
		Title:       "Added to cart",
		Description: fmt.Sprintf("%s is now in your cart", product.Name),
	})
}

// RemoveItem deletes the line for the variant. Removing an absent variant is
// a silent no-op.
func (s *Store) RemoveItem(ctx context.Context, variantID string) {
	s.mu.Lock()
	removed := ""
	for i := range s.lines {
		if s.lines[i].Variant.ID == variantID {
			removed = s.lines[i].Product.Name
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}
	if removed != "" {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if removed == "" {
		return
	}
	obs.CartMutationsTotal.WithLabelValues("remove").Inc()
	s.sink.Notify(ctx, notify.Notification{
		Severity:    notify.SeverityDefault,
		Title:       "Removed from cart",
		Description: fmt.Sprintf("%s was removed", removed),
	})
}

// UpdateQuantity sets the quantity for the variant's line. Quantities below
// one are ignored; lowering to zero never removes a line, that is
// RemoveItem's job. Stock ceilings are enforced by the caller.
func (s *Store) UpdateQuantity(ctx context.Context, variantID string, qty int) {
	if qty < 1 {
		return
	}
	s.mu.Lock()
	updated := false
	for i := range s.lines {
		if s.lines[i].Variant.ID == variantID {
			s.lines[i].Quantity = qty
			updated = true
			break
		}
	}
	if updated {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if updated {
		obs.CartMutationsTotal.WithLabelValues("update").Inc()
	}
}

// Clear empties the cart. The persistence slot keeps its key, holding an
// empty list.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	s.persistLocked(ctx)
	s.mu.Unlock()

	obs.CartMutationsTotal.WithLabelValues("clear").Inc()
	s.sink.Notify(ctx, notify.Notification{
		Severity:    notify.SeverityDefault,
		Title:       "Cart cleared",
		Description: "All items were removed from your cart",
	})
}

// Total returns the sum of price times quantity across all lines.
func (s *Store) Total() pricing.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total pricing.Money
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

// Count returns the total quantity across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

// Lines returns a copy of the current line list in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Items returns the lines as pricing items.
func (s *Store) Items() []pricing.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pricing.Item, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, pricing.Item{Qty: l.Quantity, UnitPrice: l.Variant.Price})
	}
	return out
}

// Open sets the transient visibility flag. Visibility is UI state and is
// never persisted.
func (s *Store) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

// Close clears the transient visibility flag.
func (s *Store) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

// IsOpen reports the transient visibility flag.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// persistLocked mirrors the line list to the slot at the end of a mutation.
// Persistence failures are logged and never surfaced to the caller: a
// mutation cannot fail under normal input.
func (s *Store) persistLocked(ctx context.Context) {
	if s.slot == nil {
		return
	}
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	if err := s.slot.Save(ctx, lines); err != nil {
		s.log.Error().Err(err).Msg("persist cart state")
	}
}

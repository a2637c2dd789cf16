package checkout

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sokoni/duka-api/internal/cart"
	"github.com/sokoni/duka-api/internal/notify"
	"github.com/sokoni/duka-api/internal/obs"
	"github.com/sokoni/duka-api/internal/pricing"
	"github.com/sokoni/duka-api/internal/shipping"
)

var (
	// ErrSubmitting is returned when a submission is already in flight.
	ErrSubmitting = errors.New("checkout: submission already in flight")
	// ErrEmptyCart is returned when submitting with no lines in the cart.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrUnknownRegion is returned for a region id outside the static table.
	ErrUnknownRegion = errors.New("checkout: unknown shipping region")
)

// State tracks the checkout submission lifecycle.
type State string

const (
	// StateIdle accepts edits and submissions.
	StateIdle State = "idle"
	// StateSubmitting blocks re-entry while the order call is in flight.
	StateSubmitting State = "submitting"
	// StateSucceeded is terminal; the cart has been cleared.
	StateSucceeded State = "succeeded"
)

// mpesaPhonePattern matches Kenyan mobile numbers in local or international form.
var mpesaPhonePattern = regexp.MustCompile(`^(?:\+?254|0)(?:7|1)\d{8}$`)

// Form carries the contact, address and payment fields collected before
// submission.
type Form struct {
	FirstName     string `json:"firstName" validate:"required"`
	LastName      string `json:"lastName" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required"`
	Address       string `json:"address" validate:"required"`
	City          string `json:"city" validate:"required"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=mpesa card"`
	MpesaPhone    string `json:"mpesaPhone" validate:"required_if=PaymentMethod mpesa"`
	CardNumber    string `json:"cardNumber" validate:"required_if=PaymentMethod card"`
	CardExpiry    string `json:"cardExpiry" validate:"required_if=PaymentMethod card"`
	CardCVC       string `json:"cardCvc" validate:"required_if=PaymentMethod card"`
}

// FieldErrors maps form fields to human-readable validation messages. It
// satisfies error so Submit can refuse an invalid form without a separate
// result type.
type FieldErrors map[string]string

// Error implements the error interface.
func (fe FieldErrors) Error() string { return "checkout: form validation failed" }

// OrderRequest is the payload handed to the external order service.
type OrderRequest struct {
	Customer Form            `json:"customer"`
	Region   shipping.Region `json:"region"`
	Lines    []cart.Line     `json:"lines"`
	Pricing  pricing.Summary `json:"pricing"`
}

// Receipt describes a successfully placed order.
type Receipt struct {
	OrderID  string    `json:"orderId"`
	PlacedAt time.Time `json:"placedAt"`
}

// OrderPlacer submits the order to the external payment/order service.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (Receipt, error)
}

// ConfirmationEnqueuer schedules the order confirmation email after a
// successful submission.
type ConfirmationEnqueuer interface {
	EnqueueOrderConfirmation(ctx context.Context, to, name, orderID string, total pricing.Money, placedAt time.Time) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config groups Session dependencies.
type Config struct {
	Placer        OrderPlacer
	Sink          notify.Sink
	Confirmations ConfirmationEnqueuer
	Logger        zerolog.Logger
}

// Session derives a payable total from cart contents and a shipping
// selection, and gates submission on validation. One submission may be in
// flight at a time; a failed submission returns to idle with the form
// preserved.
type Session struct {
	mu     sync.Mutex
	cart   *cart.Store
	region shipping.Region
	form   Form
	state  State

	placer        OrderPlacer
	sink          notify.Sink
	confirmations ConfirmationEnqueuer
	log           zerolog.Logger
}

// NewSession constructs a checkout session over the given cart, starting at
// the default shipping region.
func NewSession(c *cart.Store, cfg Config) *Session {
	s := &Session{
		cart:          c,
		region:        shipping.Default(),
		state:         StateIdle,
		placer:        cfg.Placer,
		sink:          cfg.Sink,
		confirmations: cfg.Confirmations,
		log:           cfg.Logger,
	}
	if s.sink == nil {
		s.sink = notify.NopSink{}
	}
	return s
}

// SelectRegion switches the shipping region, looking up its flat rate from
// the static table.
func (s *Session) SelectRegion(id string) error {
	region, ok := shipping.ByID(id)
	if !ok {
		return ErrUnknownRegion
	}
	s.mu.Lock()
	s.region = region
	s.mu.Unlock()
	return nil
}

// Region returns the currently selected shipping region.
func (s *Session) Region() shipping.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region
}

// SetForm replaces the checkout form fields.
func (s *Session) SetForm(f Form) {
	s.mu.Lock()
	s.form = f
	s.mu.Unlock()
}

// Form returns the current form fields.
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// State reports the submission lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subtotal returns the cart total before shipping.
func (s *Session) Subtotal() pricing.Money {
	return s.cart.Total()
}

// Summary computes subtotal, shipping and payable total for the current
// cart and region.
func (s *Session) Summary() pricing.Summary {
	s.mu.Lock()
	rate := s.region.Rate
	s.mu.Unlock()
	return pricing.Compute(s.cart.Items(), rate)
}

// Validate checks required contact and address fields plus the fields the
// selected payment method demands. It returns field-level messages and never
// an error cascade; an empty map means the form may be submitted.
func (s *Session) Validate() FieldErrors {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	problems := FieldErrors{}
	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems[jsonField(fe.Field())] = messageFor(fe)
			}
		}
	}
	if form.PaymentMethod == "mpesa" && form.MpesaPhone != "" && !mpesaPhonePattern.MatchString(form.MpesaPhone) {
		problems["mpesaPhone"] = "must be a valid Kenyan mobile number"
	}
	return problems
}

// Submit validates the form and delegates to the external order service. On
// success the cart is cleared and the session reaches its terminal state; on
// failure the cart and form are left untouched so the user can resubmit.
func (s *Session) Submit(ctx context.Context) (Receipt, error) {
	if problems := s.Validate(); len(problems) > 0 {
		return Receipt{}, problems
	}
	if s.cart.Count() == 0 {
		return Receipt{}, ErrEmptyCart
	}

	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return Receipt{}, ErrSubmitting
	}
	if s.placer == nil {
		s.mu.Unlock()
		return Receipt{}, errors.New("checkout: order placer not configured")
	}
	s.state = StateSubmitting
	form := s.form
	region := s.region
	s.mu.Unlock()

	req := OrderRequest{
		Customer: form,
		Region:   region,
		Lines:    s.cart.Lines(),
		Pricing:  pricing.Compute(s.cart.Items(), region.Rate),
	}
	receipt, err := s.placer.PlaceOrder(ctx, req)

	s.mu.Lock()
	if err != nil {
		s.state = StateIdle
		s.mu.Unlock()
		obs.CheckoutSubmissionsTotal.WithLabelValues("failure").Inc()
		s.log.Error().Err(err).Msg("order submission failed")
		s.sink.Notify(ctx, notify.Notification{
			Severity:    notify.SeverityError,
			Title:       "Order failed",
			Description: "We could not place your order. Please try again.",
		})
		return Receipt{}, err
	}
	s.state = StateSucceeded
	s.mu.Unlock()

	obs.CheckoutSubmissionsTotal.WithLabelValues("success").Inc()
	s.cart.Clear(ctx)
	s.sink.Notify(ctx, notify.Notification{
		Severity:    notify.SeveritySuccess,
		Title:       "Order placed",
		Description: "Your order " + receipt.OrderID + " was placed successfully",
	})
	if s.confirmations != nil {
		name := strings.TrimSpace(form.FirstName + " " + form.LastName)
		if err := s.confirmations.EnqueueOrderConfirmation(ctx, form.Email, name, receipt.OrderID, req.Pricing.Total, receipt.PlacedAt); err != nil {
			s.log.Error().Err(err).Msg("enqueue order confirmation")
		}
	}
	return receipt, nil
}

func jsonField(structField string) string {
	if structField == "" {
		return structField
	}
	switch structField {
	case "CardCVC":
		return "cardCvc"
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

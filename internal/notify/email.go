package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/sokoni/duka-api/internal/pricing"
)

// Email templates for the two transactional sends the platform performs:
// order confirmations after checkout and reminders for inactive carts.

// OrderConfirmation renders the subject and HTML body for a successful order.
func OrderConfirmation(name, orderID string, total pricing.Money, placedAt time.Time) (subject, html string) {
	subject = fmt.Sprintf("Order %s confirmed", orderID)
	var b strings.Builder
	b.WriteString("<h2>Thank you for your order")
	if strings.TrimSpace(name) != "" {
		b.WriteString(", ")
		b.WriteString(name)
	}
	b.WriteString("</h2>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> was placed on %s.</p>", orderID, placedAt.Format("2 Jan 2006 15:04"))
	fmt.Fprintf(&b, "<p>Total charged: <strong>%s</strong>.</p>", FormatMoney(total))
	b.WriteString("<p>We will notify you when your order ships.</p>")
	return subject, b.String()
}

// InactivityReminder renders the reminder sent when a cart has gone stale.
func InactivityReminder(name string, idleFor time.Duration) (subject, html string) {
	subject = "You left something in your cart"
	days := int(idleFor.Hours() / 24)
	if days < 1 {
		days = 1
	}
	var b strings.Builder
	b.WriteString("<h2>Still thinking it over")
	if strings.TrimSpace(name) != "" {
		b.WriteString(", ")
		b.WriteString(name)
	}
	b.WriteString("?</h2>")
	fmt.Fprintf(&b, "<p>Your cart has been waiting for %d day(s). Items are reserved while stock lasts.</p>", days)
	b.WriteString("<p>Come back and finish your checkout.</p>")
	return subject, b.String()
}

// FormatMoney renders a minor-unit amount as Kenyan shillings.
func FormatMoney(m pricing.Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%sKSh %d.%02d", sign, m/100, m%100)
}

package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components. The storefront uses a
// single-currency, flat-rate shipping model: no taxes, no discounts, no
// currency conversion.
type Summary struct {
	Subtotal Money
	Shipping Money
	Total    Money
}

// Compute calculates payable totals for the provided lines and shipping rate.
func Compute(items []Item, shipping Money) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	if shipping < 0 {
		shipping = 0
	}
	return Summary{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}

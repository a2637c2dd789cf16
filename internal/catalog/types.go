package catalog

import (
	"encoding/json"
	"fmt"

	validator "github.com/go-playground/validator/v10"

	"github.com/sokoni/duka-api/internal/pricing"
)

// Product is a catalog entry owning one or more purchasable variants.
type Product struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Rating      float64   `json:"rating" validate:"gte=0,lte=5"`
	Featured    bool      `json:"featured"`
	Variants    []Variant `json:"variants" validate:"min=1,dive"`
}

// Variant is a purchasable SKU of a product, distinguished by size and
// colour, carrying its own price and stock. Variant identifiers are unique
// across the whole catalog.
type Variant struct {
	ID        string        `json:"id" validate:"required"`
	ProductID string        `json:"productId"`
	Size      string        `json:"size,omitempty"`
	Color     string        `json:"color,omitempty"`
	Price     pricing.Money `json:"price" validate:"gte=0"`
	Stock     int           `json:"stock" validate:"gte=0"`
	Images    []string      `json:"images" validate:"min=1,dive,required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeProduct converts an untyped record from the remote catalog service
// into a validated Product. Rows that do not satisfy the schema never enter
// the core.
func DecodeProduct(raw json.RawMessage) (Product, error) {
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return Product{}, fmt.Errorf("catalog: decode product: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return Product{}, fmt.Errorf("catalog: invalid product record: %w", err)
	}
	for i := range p.Variants {
		if p.Variants[i].ProductID == "" {
			p.Variants[i].ProductID = p.ID
		} else if p.Variants[i].ProductID != p.ID {
			return Product{}, fmt.Errorf("catalog: variant %s does not belong to product %s", p.Variants[i].ID, p.ID)
		}
	}
	return p, nil
}

// DecodeProducts decodes a batch of records, skipping rows that fail
// validation and reporting how many were dropped.
func DecodeProducts(raws []json.RawMessage) ([]Product, int) {
	out := make([]Product, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		p, err := DecodeProduct(raw)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}

// FindVariant returns the variant with the given id, if the product owns it.
func (p Product) FindVariant(variantID string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return Variant{}, false
}

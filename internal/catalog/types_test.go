package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const validRecord = `{
	"id": "p1",
	"name": "Maasai Blanket",
	"description": "Handwoven shuka",
	"category": "home",
	"rating": 4.5,
	"featured": true,
	"variants": [
		{"id": "v1", "size": "L", "color": "red", "price": 19999, "stock": 5, "images": ["https://cdn.example.com/v1.jpg"]}
	]
}`

func TestDecodeProductValid(t *testing.T) {
	p, err := DecodeProduct(json.RawMessage(validRecord))
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	require.Len(t, p.Variants, 1)
	require.Equal(t, "p1", p.Variants[0].ProductID, "missing back-reference is filled from the parent")
}

func TestDecodeProductRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"missing id":        `{"name": "X", "variants": [{"id": "v1", "price": 1, "stock": 1, "images": ["i"]}]}`,
		"missing name":      `{"id": "p1", "variants": [{"id": "v1", "price": 1, "stock": 1, "images": ["i"]}]}`,
		"no variants":       `{"id": "p1", "name": "X", "variants": []}`,
		"negative price":    `{"id": "p1", "name": "X", "variants": [{"id": "v1", "price": -5, "stock": 1, "images": ["i"]}]}`,
		"negative stock":    `{"id": "p1", "name": "X", "variants": [{"id": "v1", "price": 1, "stock": -1, "images": ["i"]}]}`,
		"no images":         `{"id": "p1", "name": "X", "variants": [{"id": "v1", "price": 1, "stock": 1, "images": []}]}`,
		"rating over five":  `{"id": "p1", "name": "X", "rating": 7, "variants": [{"id": "v1", "price": 1, "stock": 1, "images": ["i"]}]}`,
		"variant without id": `{"id": "p1", "name": "X", "variants": [{"price": 1, "stock": 1, "images": ["i"]}]}`,
		"not json":          `{nope`,
	}
	for name, raw := range cases {
		_, err := DecodeProduct(json.RawMessage(raw))
		require.Error(t, err, "case %q", name)
	}
}

func TestDecodeProductForeignVariant(t *testing.T) {
	raw := `{"id": "p1", "name": "X", "variants": [{"id": "v1", "productId": "p2", "price": 1, "stock": 1, "images": ["i"]}]}`
	_, err := DecodeProduct(json.RawMessage(raw))
	require.Error(t, err)
}

func TestDecodeProductsSkipsBadRows(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(validRecord),
		json.RawMessage(`{"id": "p2"}`),
		json.RawMessage(`broken`),
	}
	products, dropped := DecodeProducts(raws)
	require.Len(t, products, 1)
	require.Equal(t, 2, dropped)
}

func TestFindVariant(t *testing.T) {
	p, err := DecodeProduct(json.RawMessage(validRecord))
	require.NoError(t, err)

	v, ok := p.FindVariant("v1")
	require.True(t, ok)
	require.Equal(t, "v1", v.ID)

	_, ok = p.FindVariant("v9")
	require.False(t, ok)
}

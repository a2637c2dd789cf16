package shipping

import (
	"sort"
	"strings"

	"github.com/sokoni/duka-api/internal/pricing"
)

// Region is a flat-rate shipping destination bucket.
type Region struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Rate pricing.Money `json:"rate"`
}

// DefaultRegionID is the region selected before the customer picks one.
const DefaultRegionID = "nairobi-cbd"

// The static, read-only delivery region table. Rates are flat per delivery,
// quoted in minor units of the store currency.
var regions = map[string]Region{
	"nairobi-cbd": {ID: "nairobi-cbd", Name: "Nairobi CBD", Rate: 200},
	"westlands":   {ID: "westlands", Name: "Westlands", Rate: 300},
	"kilimani":    {ID: "kilimani", Name: "Kilimani", Rate: 300},
	"karen":       {ID: "karen", Name: "Karen", Rate: 450},
	"ruaka":       {ID: "ruaka", Name: "Ruaka", Rate: 400},
	"thika":       {ID: "thika", Name: "Thika", Rate: 550},
	"mombasa":     {ID: "mombasa", Name: "Mombasa", Rate: 800},
	"kisumu":      {ID: "kisumu", Name: "Kisumu", Rate: 750},
}

// ByID looks up a region by its identifier.
func ByID(id string) (Region, bool) {
	r, ok := regions[strings.ToLower(strings.TrimSpace(id))]
	return r, ok
}

// Default returns the starting region used before any selection is made.
func Default() Region {
	return regions[DefaultRegionID]
}

// Regions returns all delivery regions ordered by name.
func Regions() []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

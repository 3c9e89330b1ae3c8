// internal/models/criteria.go
package models

import (
	"fmt"
	"strings"
)

// Criteria is the filter value object. A nil Cuisine or PriceTier places no
// constraint on that field.
type Criteria struct {
	Cuisine   *string `json:"cuisine"`
	MinRating float64 `json:"minRating"`
	PriceTier *string `json:"priceTier"`
}

// StringPtr is a convenience for building optional criteria fields.
func StringPtr(s string) *string {
	return &s
}

// Equal compares by value, not by pointer identity.
func (c Criteria) Equal(o Criteria) bool {
	return optEqual(c.Cuisine, o.Cuisine) &&
		c.MinRating == o.MinRating &&
		optEqual(c.PriceTier, o.PriceTier)
}

// Narrows reports whether c is at least as strict as o on every field, so
// that every venue matching c also matches o.
func (c Criteria) Narrows(o Criteria) bool {
	if o.Cuisine != nil && !optEqual(c.Cuisine, o.Cuisine) {
		return false
	}
	if o.PriceTier != nil && !optEqual(c.PriceTier, o.PriceTier) {
		return false
	}
	return c.MinRating >= o.MinRating
}

func (c Criteria) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cuisine=%s minRating=%g priceTier=%s", optString(c.Cuisine), c.MinRating, optString(c.PriceTier))
	return b.String()
}

func optEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func optString(s *string) string {
	if s == nil {
		return "All"
	}
	return *s
}

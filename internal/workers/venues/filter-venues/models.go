package filtervenues

import (
	"venue-finder/internal/finder/filter"
	"venue-finder/internal/models"
)

type Input struct {
	Venues   []models.Venue `json:"venues"`
	Criteria CriteriaInput  `json:"criteria"`
}

// CriteriaInput leaves minRating optional; absent means the bottom of the
// rating scale.
type CriteriaInput struct {
	Cuisine   *string  `json:"cuisine"`
	MinRating *float64 `json:"minRating"`
	PriceTier *string  `json:"priceTier"`
}

type Output struct {
	Venues  []models.Venue    `json:"venues"`
	Points  []models.MapPoint `json:"points"`
	Count   int               `json:"count"`
	Summary filter.Summary    `json:"summary"`
	Dropped int               `json:"dropped"`
}

// Package findertest provides venue fixtures shared by the finder tests.
package findertest

import (
	"fmt"
	"math/rand"

	"venue-finder/internal/models"
)

// Ordinal returns five venues on a 1..3 rating scale. Exactly two of them,
// "bella" then "sakura", rate 2 or higher, and only "sakura" rates 3.
func Ordinal() []models.Venue {
	return []models.Venue{
		venue("taco", "Taco Libre", "Mexican", 1, "$", 40.7150, -74.0010),
		venue("bella", "Bella Vista Italian", "Italian", 2, "$$", 40.7180, -74.0100),
		venue("coffee", "The Coffee House", "Cafe", 1, "$$", 40.7090, -74.0040),
		venue("sakura", "Sakura Sushi Bar", "Japanese", 3, "$$$", 40.7200, -74.0070),
		venue("diner", "Corner Diner", "American", 1, "$", 40.7110, -74.0120),
	}
}

var (
	cuisines = []string{"Mexican", "Italian", "Cafe", "Japanese", "American"}
	prices   = []string{"$", "$$", "$$$"}
)

// Random returns n venues with unique ids and ratings on a 0.1 grid in
// 1.0..5.0, drawn from r.
func Random(r *rand.Rand, n int) []models.Venue {
	out := make([]models.Venue, n)
	for i := range out {
		out[i] = venue(
			fmt.Sprintf("v%03d", i),
			fmt.Sprintf("Venue %d", i),
			cuisines[r.Intn(len(cuisines))],
			float64(10+r.Intn(41))/10,
			prices[r.Intn(len(prices))],
			40.7128+(r.Float64()-0.5)/50,
			-74.0060+(r.Float64()-0.5)/50,
		)
	}
	return out
}

// RandomCriteria draws criteria over the same label and rating space as
// Random, leaving each optional field unset about half the time.
func RandomCriteria(r *rand.Rand) models.Criteria {
	c := models.Criteria{MinRating: float64(10+r.Intn(41)) / 10}
	if r.Intn(2) == 0 {
		c.Cuisine = models.StringPtr(cuisines[r.Intn(len(cuisines))])
	}
	if r.Intn(2) == 0 {
		c.PriceTier = models.StringPtr(prices[r.Intn(len(prices))])
	}
	return c
}

func venue(id, name, cuisine string, rating float64, price string, lat, lon float64) models.Venue {
	return models.Venue{
		ID:        id,
		Name:      name,
		Cuisine:   cuisine,
		Rating:    rating,
		PriceTier: price,
		Address:   name + " address",
		Location:  models.GeoPoint{Lat: lat, Lon: lon},
	}
}

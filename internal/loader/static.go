package loader

import (
	"context"

	"venue-finder/internal/models"
)

// StaticSource serves a fixed record list. The zero value serves the
// built-in sample restaurants.
type StaticSource struct {
	records []models.VenueRecord
}

// NewStaticSource serves records as given.
func NewStaticSource(records []models.VenueRecord) *StaticSource {
	return &StaticSource{records: records}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Records(context.Context) ([]models.VenueRecord, error) {
	src := s.records
	if src == nil {
		src = sampleRecords
	}
	out := make([]models.VenueRecord, len(src))
	copy(out, src)
	return out, nil
}

// Sample restaurants around lower Manhattan.
var sampleRecords = []models.VenueRecord{
	{
		Name:        "The Golden Spoon",
		Cuisine:     "American Fine Dining",
		Rating:      "4.5",
		PriceTier:   "$$$",
		Address:     "123 Main St, Downtown",
		Phone:       "(555) 123-4567",
		Hours:       "5:00 PM - 10:00 PM",
		Description: "Seasonal tasting menus and an award-winning wine list.",
		Location:    "40.7163,-74.0081",
	},
	{
		Name:        "Bella Vista Italian",
		Cuisine:     "Italian",
		Rating:      "4.2",
		PriceTier:   "$$",
		Address:     "456 Oak Ave, Little Italy",
		Phone:       "(555) 234-5678",
		Hours:       "11:00 AM - 9:00 PM",
		Description: "Handmade pasta and wood-fired pizza.",
		Location:    "40.7191,-73.9987",
	},
	{
		Name:        "Sakura Sushi Bar",
		Cuisine:     "Japanese",
		Rating:      "4.7",
		PriceTier:   "$$$",
		Address:     "789 Pine Rd, Midtown",
		Phone:       "(555) 345-6789",
		Hours:       "12:00 PM - 10:00 PM",
		Description: "Omakase counter and classic rolls.",
		Location:    "40.7207,-74.0102",
	},
	{
		Name:        "Taco Libre",
		Cuisine:     "Mexican",
		Rating:      "4.1",
		PriceTier:   "$",
		Address:     "321 Elm St, Arts District",
		Phone:       "(555) 456-7890",
		Hours:       "11:00 AM - 8:00 PM",
		Description: "Street tacos and fresh salsas.",
		Location:    "40.7094,-74.0023",
	},
	{
		Name:        "The Coffee House",
		Cuisine:     "Cafe",
		Rating:      "4.3",
		PriceTier:   "$$",
		Address:     "654 Maple Dr, University Area",
		Phone:       "(555) 567-8901",
		Hours:       "7:00 AM - 6:00 PM",
		Description: "Single-origin pour-overs and pastries.",
		Location:    "40.7119,-74.0145",
	},
}

// internal/models/venue.go
package models

import "math"

// GeoPoint is a WGS84 position in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both components are finite and in range.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Venue is an immutable listed place. ID is unique within a session.
type Venue struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Cuisine     string   `json:"cuisine"`
	Rating      float64  `json:"rating"`
	PriceTier   string   `json:"priceTier"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone,omitempty"`
	Hours       string   `json:"hours,omitempty"`
	Website     string   `json:"website,omitempty"`
	Description string   `json:"description,omitempty"`
	Location    GeoPoint `json:"location"`
}

// VenueRecord is a row as delivered by a data source, before parsing.
// Location is the composite "lat,lon" string.
type VenueRecord struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Cuisine     string `json:"cuisine"`
	Rating      string `json:"rating"`
	PriceTier   string `json:"priceTier"`
	Address     string `json:"address"`
	Phone       string `json:"phone,omitempty"`
	Hours       string `json:"hours,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location"`
}

// MapPoint is a marker as handed to a map renderer. Its position in a
// point slice is the index a marker click reports.
type MapPoint struct {
	ID      string  `json:"id"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Size    float64 `json:"size"`
	Cuisine string  `json:"cuisine"`
}

// Package filter derives the ordered working set of venues from criteria.
package filter

import "venue-finder/internal/models"

// Set is an ordered, immutable filter result with an id index built once at
// construction. A nil *Set means no filter has run yet. A non-nil Set with
// Len() == 0 is a valid empty result.
type Set struct {
	venues []models.Venue
	index  map[string]int
}

// Apply keeps the venues matching every constraint in c, preserving input
// order. It never mutates venues and never fails.
func Apply(venues []models.Venue, c models.Criteria) *Set {
	s := &Set{
		venues: make([]models.Venue, 0, len(venues)),
		index:  make(map[string]int),
	}
	for _, v := range venues {
		if !Matches(v, c) {
			continue
		}
		s.index[v.ID] = len(s.venues)
		s.venues = append(s.venues, v)
	}
	return s
}

// Matches is the conjunction of the cuisine, rating and price constraints.
func Matches(v models.Venue, c models.Criteria) bool {
	if c.Cuisine != nil && v.Cuisine != *c.Cuisine {
		return false
	}
	if v.Rating < c.MinRating {
		return false
	}
	if c.PriceTier != nil && v.PriceTier != *c.PriceTier {
		return false
	}
	return true
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.venues)
}

func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// At resolves a position in set order.
func (s *Set) At(i int) (models.Venue, bool) {
	if s == nil || i < 0 || i >= len(s.venues) {
		return models.Venue{}, false
	}
	return s.venues[i], true
}

// Lookup resolves an id through the index.
func (s *Set) Lookup(id string) (models.Venue, bool) {
	if s == nil {
		return models.Venue{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return models.Venue{}, false
	}
	return s.venues[i], true
}

func (s *Set) Contains(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

// Venues returns a copy of the set in order.
func (s *Set) Venues() []models.Venue {
	if s == nil {
		return nil
	}
	out := make([]models.Venue, len(s.venues))
	copy(out, s.venues)
	return out
}

func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, len(s.venues))
	for i, v := range s.venues {
		ids[i] = v.ID
	}
	return ids
}

// Points projects the set onto map markers, sized by rating, in set order.
func (s *Set) Points() []models.MapPoint {
	if s == nil {
		return nil
	}
	points := make([]models.MapPoint, len(s.venues))
	for i, v := range s.venues {
		points[i] = models.MapPoint{
			ID:      v.ID,
			Lat:     v.Location.Lat,
			Lon:     v.Location.Lon,
			Size:    v.Rating,
			Cuisine: v.Cuisine,
		}
	}
	return points
}

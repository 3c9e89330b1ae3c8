// Package store holds the immutable venue list a session filters over.
package store

import (
	"strconv"

	apperrors "venue-finder/internal/common/errors"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/models"
)

// Store is read-only after New and safe to share between sessions.
type Store struct {
	venues     []models.Venue
	index      map[string]int
	cuisines   []string
	priceTiers []string
}

// New builds a Store from venues in the given order. Venues with an empty
// id or an invalid location are dropped, as is any later venue repeating an
// id already seen. Each drop is returned as a warning.
func New(venues []models.Venue, log logger.Logger) (*Store, []*apperrors.StandardError) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	s := &Store{
		venues: make([]models.Venue, 0, len(venues)),
		index:  make(map[string]int, len(venues)),
	}
	seenCuisine := make(map[string]struct{})
	seenPrice := make(map[string]struct{})

	var warnings []*apperrors.StandardError
	drop := func(row int, w *apperrors.StandardError) {
		log.Warn("venue dropped", map[string]interface{}{
			"row":       row,
			"errorCode": string(w.Code),
			"details":   w.Details,
		})
		warnings = append(warnings, w)
	}

	for row, v := range venues {
		switch {
		case v.ID == "":
			drop(row, apperrors.NewInvalidRecordError(v.Name, "id", "empty identity"))
			continue
		case !v.Location.Valid():
			drop(row, apperrors.NewInvalidCoordinateError(v.ID, formatPoint(v.Location), nil))
			continue
		}
		if _, dup := s.index[v.ID]; dup {
			drop(row, apperrors.NewDuplicateVenueError(v.ID))
			continue
		}

		s.index[v.ID] = len(s.venues)
		s.venues = append(s.venues, v)

		if _, ok := seenCuisine[v.Cuisine]; !ok {
			seenCuisine[v.Cuisine] = struct{}{}
			s.cuisines = append(s.cuisines, v.Cuisine)
		}
		if _, ok := seenPrice[v.PriceTier]; !ok {
			seenPrice[v.PriceTier] = struct{}{}
			s.priceTiers = append(s.priceTiers, v.PriceTier)
		}
	}

	return s, warnings
}

// Venues returns a copy of the venue list in store order.
func (s *Store) Venues() []models.Venue {
	out := make([]models.Venue, len(s.venues))
	copy(out, s.venues)
	return out
}

// View returns the backing slice. Callers must not modify it.
func (s *Store) View() []models.Venue {
	return s.venues
}

func (s *Store) Len() int {
	return len(s.venues)
}

func (s *Store) Lookup(id string) (models.Venue, bool) {
	i, ok := s.index[id]
	if !ok {
		return models.Venue{}, false
	}
	return s.venues[i], true
}

// Cuisines lists the distinct cuisine labels in first-appearance order.
func (s *Store) Cuisines() []string {
	return append([]string(nil), s.cuisines...)
}

// PriceTiers lists the distinct price symbols in first-appearance order.
func (s *Store) PriceTiers() []string {
	return append([]string(nil), s.priceTiers...)
}

// HasCuisine reports whether label names a cuisine present in the store.
func (s *Store) HasCuisine(label string) bool {
	for _, c := range s.cuisines {
		if c == label {
			return true
		}
	}
	return false
}

func (s *Store) HasPriceTier(symbol string) bool {
	for _, p := range s.priceTiers {
		if p == symbol {
			return true
		}
	}
	return false
}

func formatPoint(p models.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoPoint_Valid(t *testing.T) {
	tests := []struct {
		name  string
		point GeoPoint
		want  bool
	}{
		{"new york", GeoPoint{Lat: 40.7128, Lon: -74.0060}, true},
		{"poles and antimeridian", GeoPoint{Lat: -90, Lon: 180}, true},
		{"lat out of range", GeoPoint{Lat: 90.5, Lon: 0}, false},
		{"lon out of range", GeoPoint{Lat: 0, Lon: -180.01}, false},
		{"nan", GeoPoint{Lat: math.NaN(), Lon: 0}, false},
		{"inf", GeoPoint{Lat: 0, Lon: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.point.Valid())
		})
	}
}

func TestCriteria_EqualAndNarrows(t *testing.T) {
	all := Criteria{MinRating: 1}
	italian := Criteria{Cuisine: StringPtr("Italian"), MinRating: 1}
	italianAgain := Criteria{Cuisine: StringPtr("Italian"), MinRating: 1}
	strict := Criteria{Cuisine: StringPtr("Italian"), MinRating: 4, PriceTier: StringPtr("$$")}

	assert.True(t, italian.Equal(italianAgain))
	assert.False(t, italian.Equal(all))

	assert.True(t, italian.Narrows(all))
	assert.True(t, strict.Narrows(italian))
	assert.False(t, all.Narrows(italian))
	assert.False(t, Criteria{Cuisine: StringPtr("Mexican"), MinRating: 1}.Narrows(italian))
}

func TestCriteria_String(t *testing.T) {
	c := Criteria{MinRating: 2.5, PriceTier: StringPtr("$")}
	assert.Equal(t, "cuisine=All minRating=2.5 priceTier=$", c.String())
}

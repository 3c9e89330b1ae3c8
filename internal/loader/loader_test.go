package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "venue-finder/internal/common/errors"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/models"
)

// ==========================
// Parsing Tests
// ==========================

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    models.GeoPoint
		wantErr bool
	}{
		{"plain", "40.7128,-74.0060", models.GeoPoint{Lat: 40.7128, Lon: -74.0060}, false},
		{"spaces", " 40.7128 , -74.0060 ", models.GeoPoint{Lat: 40.7128, Lon: -74.0060}, false},
		{"integers", "0,0", models.GeoPoint{}, false},
		{"one part", "40.7128", models.GeoPoint{}, true},
		{"three parts", "40.7,-74.0,12", models.GeoPoint{}, true},
		{"not a number", "north,-74.0", models.GeoPoint{}, true},
		{"empty lon", "40.7,", models.GeoPoint{}, true},
		{"latitude range", "91,0", models.GeoPoint{}, true},
		{"longitude range", "0,181", models.GeoPoint{}, true},
		{"nan", "NaN,0", models.GeoPoint{}, true},
		{"empty", "", models.GeoPoint{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func validRecord() models.VenueRecord {
	return models.VenueRecord{
		Name:      " Taco Libre ",
		Cuisine:   "Mexican",
		Rating:    "4.1",
		PriceTier: "$",
		Address:   "321 Elm St",
		Location:  "40.7094,-74.0023",
	}
}

func TestToVenue(t *testing.T) {
	v, warn := ToVenue(validRecord())
	require.Nil(t, warn)
	assert.Equal(t, "Taco Libre", v.ID)
	assert.Equal(t, "Taco Libre", v.Name)
	assert.Equal(t, 4.1, v.Rating)
	assert.Equal(t, models.GeoPoint{Lat: 40.7094, Lon: -74.0023}, v.Location)

	withID := validRecord()
	withID.ID = "taco-1"
	v, warn = ToVenue(withID)
	require.Nil(t, warn)
	assert.Equal(t, "taco-1", v.ID)
}

func TestToVenue_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.VenueRecord)
		code   apperrors.ErrorCode
		field  string
	}{
		{"bad location", func(r *models.VenueRecord) { r.Location = "abc" }, apperrors.ErrCodeInvalidCoordinate, ""},
		{"missing name", func(r *models.VenueRecord) { r.Name = "  " }, apperrors.ErrCodeInvalidRecord, "name"},
		{"missing cuisine", func(r *models.VenueRecord) { r.Cuisine = "" }, apperrors.ErrCodeInvalidRecord, "cuisine"},
		{"missing price", func(r *models.VenueRecord) { r.PriceTier = "" }, apperrors.ErrCodeInvalidRecord, "priceTier"},
		{"bad rating", func(r *models.VenueRecord) { r.Rating = "four" }, apperrors.ErrCodeInvalidRecord, "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			_, warn := ToVenue(rec)
			require.NotNil(t, warn)
			assert.Equal(t, tt.code, warn.Code)
			if tt.field != "" {
				assert.Equal(t, tt.field, warn.Metadata["field"])
			}
		})
	}
}

// ==========================
// Load Tests
// ==========================

func TestLoad_StaticSamples(t *testing.T) {
	res, err := Load(context.Background(), &StaticSource{}, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 5, res.Records)
	assert.Equal(t, 5, res.Store.Len())
	assert.Equal(t, []string{"American Fine Dining", "Italian", "Japanese", "Mexican", "Cafe"}, res.Store.Cuisines())
	assert.Equal(t, []string{"$$$", "$$", "$"}, res.Store.PriceTiers())

	v, ok := res.Store.Lookup("Sakura Sushi Bar")
	require.True(t, ok)
	assert.Equal(t, 4.7, v.Rating)
	assert.Equal(t, "(555) 345-6789", v.Phone)
}

func TestLoad_DropsBadRecordsWithWarnings(t *testing.T) {
	bad := validRecord()
	bad.Name = "Nowhere"
	bad.Location = "40.7;-74.0"
	dup := validRecord()

	src := NewStaticSource([]models.VenueRecord{validRecord(), bad, dup})
	res, err := Load(context.Background(), src, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Records)
	assert.Equal(t, 1, res.Store.Len())
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, apperrors.ErrCodeInvalidCoordinate, res.Warnings[0].Code)
	assert.Equal(t, apperrors.ErrCodeDuplicateVenue, res.Warnings[1].Code)
}

type failingSource struct{ err error }

func (f failingSource) Name() string { return "failing" }
func (f failingSource) Records(context.Context) ([]models.VenueRecord, error) {
	return nil, f.err
}

func TestLoad_SourceFailure(t *testing.T) {
	cause := sourceError("failing", context.DeadlineExceeded)
	_, err := Load(context.Background(), failingSource{err: cause}, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDataSourceTimeout))
}

func TestStaticSource_ReturnsCopy(t *testing.T) {
	src := &StaticSource{}
	first, _ := src.Records(context.Background())
	first[0].Name = "mutated"

	second, _ := src.Records(context.Background())
	assert.Equal(t, "The Golden Spoon", second[0].Name)
}

// Package loader reads raw venue records from a data source and turns them
// into a venue store, dropping malformed records with a warning.
package loader

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "venue-finder/internal/common/errors"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/common/metrics"
	"venue-finder/internal/finder/store"
	"venue-finder/internal/models"
)

// Source is a one-shot read of venue records.
type Source interface {
	Name() string
	Records(ctx context.Context) ([]models.VenueRecord, error)
}

// Result is a loaded store plus the records dropped on the way.
type Result struct {
	Store    *store.Store
	Records  int
	Warnings []*apperrors.StandardError
}

// Load reads src once and builds the store. Only a failed read is an
// error; bad records become warnings.
func Load(ctx context.Context, src Source, log logger.Logger) (*Result, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "loader", "source": src.Name()})

	ctx, span := otel.Tracer("venue-finder/loader").Start(ctx, "loader.Load")
	defer span.End()
	span.SetAttributes(attribute.String("source", src.Name()))

	start := time.Now()
	records, err := src.Records(ctx)
	metrics.SourceLoadDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "source read failed")
		log.Error("venue source read failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	var warnings []*apperrors.StandardError
	venues := make([]models.Venue, 0, len(records))
	for row, rec := range records {
		v, warn := ToVenue(rec)
		if warn != nil {
			log.Warn("venue record dropped", map[string]interface{}{
				"row":       row,
				"errorCode": string(warn.Code),
				"details":   warn.Details,
			})
			warnings = append(warnings, warn)
			continue
		}
		venues = append(venues, v)
	}

	st, storeWarnings := store.New(venues, log)
	warnings = append(warnings, storeWarnings...)

	metrics.VenuesLoaded.WithLabelValues(src.Name()).Add(float64(st.Len()))
	for _, w := range warnings {
		metrics.VenuesDropped.WithLabelValues(src.Name(), strings.ToLower(string(w.Code))).Inc()
	}
	span.SetAttributes(attribute.Int("venues.accepted", st.Len()), attribute.Int("venues.dropped", len(warnings)))

	log.Info("venues loaded", map[string]interface{}{
		"records":  len(records),
		"accepted": st.Len(),
		"dropped":  len(warnings),
		"duration": time.Since(start).String(),
	})

	return &Result{Store: st, Records: len(records), Warnings: warnings}, nil
}

// ParseLocation splits a "lat,lon" string and parses both halves as
// decimal degrees.
func ParseLocation(raw string) (models.GeoPoint, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return models.GeoPoint{}, fmt.Errorf("expected \"lat,lon\", got %d part(s)", len(parts))
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("longitude: %w", err)
	}
	p := models.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return models.GeoPoint{}, stderrors.New("coordinate out of range")
	}
	return p, nil
}

// ToVenue converts one raw record. The id defaults to the trimmed name.
func ToVenue(rec models.VenueRecord) (models.Venue, *apperrors.StandardError) {
	name := strings.TrimSpace(rec.Name)
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = name
	}
	if name == "" {
		return models.Venue{}, apperrors.NewInvalidRecordError(id, "name", "empty")
	}

	cuisine := strings.TrimSpace(rec.Cuisine)
	if cuisine == "" {
		return models.Venue{}, apperrors.NewInvalidRecordError(id, "cuisine", "empty")
	}
	price := strings.TrimSpace(rec.PriceTier)
	if price == "" {
		return models.Venue{}, apperrors.NewInvalidRecordError(id, "priceTier", "empty")
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(rec.Rating), 64)
	if err != nil {
		return models.Venue{}, apperrors.NewInvalidRecordError(id, "rating", err.Error())
	}

	loc, err := ParseLocation(rec.Location)
	if err != nil {
		return models.Venue{}, apperrors.NewInvalidCoordinateError(id, rec.Location, err)
	}

	return models.Venue{
		ID:          id,
		Name:        name,
		Cuisine:     cuisine,
		Rating:      rating,
		PriceTier:   price,
		Address:     strings.TrimSpace(rec.Address),
		Phone:       strings.TrimSpace(rec.Phone),
		Hours:       strings.TrimSpace(rec.Hours),
		Website:     strings.TrimSpace(rec.Website),
		Description: strings.TrimSpace(rec.Description),
		Location:    loc,
	}, nil
}

// sourceError classifies a failed read as a timeout or an outage.
func sourceError(source string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewDataSourceTimeoutError(source, err)
	}
	return apperrors.NewDataSourceUnavailableError(source, err)
}

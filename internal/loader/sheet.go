package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	apphttp "venue-finder/internal/common/http"
	"venue-finder/internal/models"
)

// SheetSource reads a published spreadsheet as CSV over HTTP. The first
// row is the header; columns are matched by name.
type SheetSource struct {
	client *apphttp.Client
	url    string
}

func NewSheetSource(client *apphttp.Client, url string) *SheetSource {
	return &SheetSource{client: client, url: url}
}

func (s *SheetSource) Name() string { return "sheet" }

func (s *SheetSource) Records(ctx context.Context) ([]models.VenueRecord, error) {
	body, err := s.client.Fetch(ctx, s.url)
	if err != nil {
		return nil, sourceError(s.Name(), err)
	}
	records, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, sourceError(s.Name(), err)
	}
	return records, nil
}

// header aliases, keyed by the normalized header text.
var columnAliases = map[string]string{
	"id":          "id",
	"name":        "name",
	"restaurant":  "name",
	"cuisine":     "cuisine",
	"rating":      "rating",
	"price":       "price",
	"pricerange":  "price",
	"pricetier":   "price",
	"address":     "address",
	"phone":       "phone",
	"contact":     "phone",
	"hours":       "hours",
	"website":     "website",
	"url":         "website",
	"description": "description",
	"blurb":       "description",
	"location":    "location",
	"latlon":      "location",
	"coordinates": "location",
	"lat":         "lat",
	"latitude":    "lat",
	"lon":         "lon",
	"lng":         "lon",
	"longitude":   "lon",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.NewReplacer(" ", "", "_", "", "-", "", ",", "").Replace(h)
}

// ParseCSV decodes venue rows. Separate latitude and longitude columns are
// joined into the composite location. Short rows are padded.
func ParseCSV(r io.Reader) ([]models.VenueRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		if name, ok := columnAliases[normalizeHeader(h)]; ok {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("missing name column in header %v", header)
	}
	_, hasLoc := cols["location"]
	_, hasLat := cols["lat"]
	_, hasLon := cols["lon"]
	if !hasLoc && !(hasLat && hasLon) {
		return nil, fmt.Errorf("missing location or lat/lon columns in header %v", header)
	}

	var records []models.VenueRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		location := field("location")
		if !hasLoc {
			location = strings.TrimSpace(field("lat")) + "," + strings.TrimSpace(field("lon"))
		}
		records = append(records, models.VenueRecord{
			ID:          field("id"),
			Name:        field("name"),
			Cuisine:     field("cuisine"),
			Rating:      field("rating"),
			PriceTier:   field("price"),
			Address:     field("address"),
			Phone:       field("phone"),
			Hours:       field("hours"),
			Website:     field("website"),
			Description: field("description"),
			Location:    location,
		})
	}
	return records, nil
}

package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"venue-finder/internal/common/database"
	"venue-finder/internal/models"
)

// ElasticsearchSource reads every document of a venue index.
type ElasticsearchSource struct {
	client  *database.ElasticsearchClient
	index   string
	maxRows int
}

func NewElasticsearchSource(client *database.ElasticsearchClient, index string, maxRows int) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index, maxRows: maxRows}
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type esVenue struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Cuisine     string          `json:"cuisine"`
	Rating      json.RawMessage `json:"rating"`
	PriceTier   string          `json:"priceTier"`
	Address     string          `json:"address"`
	Phone       string          `json:"phone"`
	Hours       string          `json:"hours"`
	Website     string          `json:"website"`
	Description string          `json:"description"`
	Location    json.RawMessage `json:"location"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Source esVenue `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) Records(ctx context.Context) ([]models.VenueRecord, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"size":  s.maxRows,
		"sort": []interface{}{
			map[string]interface{}{"position": map[string]interface{}{"order": "asc", "unmapped_type": "long"}},
			"_doc",
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	es := s.client.Client
	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(s.index),
		es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, sourceError(s.Name(), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, sourceError(s.Name(), fmt.Errorf("search error: %s", res.Status()))
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, sourceError(s.Name(), fmt.Errorf("decode search response: %w", err))
	}

	records := make([]models.VenueRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		v := hit.Source
		id := v.ID
		if id == "" {
			id = hit.ID
		}
		records = append(records, models.VenueRecord{
			ID:          id,
			Name:        v.Name,
			Cuisine:     v.Cuisine,
			Rating:      rawScalar(v.Rating),
			PriceTier:   v.PriceTier,
			Address:     v.Address,
			Phone:       v.Phone,
			Hours:       v.Hours,
			Website:     v.Website,
			Description: v.Description,
			Location:    rawLocation(v.Location),
		})
	}
	return records, nil
}

// rawScalar renders a JSON number or string as text. Anything else comes
// back as its raw JSON so the record is rejected downstream.
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}

// rawLocation accepts the geo_point forms "lat,lon", {"lat":..,"lon":..}
// and [lon, lat].
func rawLocation(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Lat != nil && obj.Lon != nil {
		return formatLatLon(*obj.Lat, *obj.Lon)
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 2 {
		return formatLatLon(arr[1], arr[0])
	}
	return string(raw)
}

func formatLatLon(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

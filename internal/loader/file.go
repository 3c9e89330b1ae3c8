package loader

import (
	"context"
	"strconv"

	"venue-finder/internal/models"
	"venue-finder/pkg/registry"
)

// FileSource reads a venue registry JSON file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Records(ctx context.Context) ([]models.VenueRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, sourceError(s.Name(), err)
	}
	reg, err := registry.LoadRegistry(s.path)
	if err != nil {
		return nil, sourceError(s.Name(), err)
	}

	records := make([]models.VenueRecord, len(reg.Venues))
	for i, e := range reg.Venues {
		records[i] = models.VenueRecord{
			ID:          e.ID,
			Name:        e.Name,
			Cuisine:     e.Cuisine,
			Rating:      strconv.FormatFloat(e.Rating, 'f', -1, 64),
			PriceTier:   e.PriceTier,
			Address:     e.Address,
			Phone:       e.Phone,
			Hours:       e.Hours,
			Website:     e.Website,
			Description: e.Description,
			Location:    e.Location,
		}
	}
	return records, nil
}

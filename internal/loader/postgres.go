package loader

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"venue-finder/internal/common/database"
	"venue-finder/internal/models"
)

// PostgresSource reads the venue table in position order.
type PostgresSource struct {
	client  *database.PostgresClient
	table   string
	maxRows int
}

func NewPostgresSource(client *database.PostgresClient, table string, maxRows int) *PostgresSource {
	return &PostgresSource{client: client, table: table, maxRows: maxRows}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) query() string {
	return fmt.Sprintf(`SELECT COALESCE(id, ''), name, cuisine, rating::text, price_tier, COALESCE(address, ''),
		COALESCE(phone, ''), COALESCE(hours, ''), COALESCE(website, ''), COALESCE(description, ''), location
		FROM %s ORDER BY position ASC LIMIT $1`, pq.QuoteIdentifier(s.table))
}

func (s *PostgresSource) Records(ctx context.Context) ([]models.VenueRecord, error) {
	rows, err := s.client.Query(ctx, s.query(), s.maxRows)
	if err != nil {
		return nil, sourceError(s.Name(), err)
	}
	defer rows.Close()

	var records []models.VenueRecord
	for rows.Next() {
		var r models.VenueRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Cuisine, &r.Rating, &r.PriceTier, &r.Address,
			&r.Phone, &r.Hours, &r.Website, &r.Description, &r.Location); err != nil {
			return nil, sourceError(s.Name(), fmt.Errorf("scan venue row: %w", err))
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, sourceError(s.Name(), err)
	}
	return records, nil
}

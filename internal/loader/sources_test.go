package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-finder/internal/common/config"
	"venue-finder/internal/common/database"
	apperrors "venue-finder/internal/common/errors"
	apphttp "venue-finder/internal/common/http"
	"venue-finder/internal/common/logger"
)

// ==========================
// Sheet Source Tests
// ==========================

const sheetCSV = "Name,Cuisine,Rating,Price Range,Address,Contact,Hours,Location\n" +
	"Bella Vista Italian,Italian,4.2,$$,\"456 Oak Ave, Little Italy\",(555) 234-5678,11:00 AM - 9:00 PM,\"40.7191,-73.9987\"\n" +
	"Broken Place,Thai,4.0,$,1 Nowhere,,,\"north,west\"\n" +
	",,,,,,,\n" +
	"Taco Libre,Mexican,4.1,$,\"321 Elm St, Arts District\",(555) 456-7890,11:00 AM - 8:00 PM,\"40.7094,-74.0023\"\n"

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(sheetCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Bella Vista Italian", records[0].Name)
	assert.Equal(t, "$$", records[0].PriceTier)
	assert.Equal(t, "456 Oak Ave, Little Italy", records[0].Address)
	assert.Equal(t, "(555) 234-5678", records[0].Phone)
	assert.Equal(t, "40.7191,-73.9987", records[0].Location)
}

func TestParseCSV_SeparateCoordinateColumns(t *testing.T) {
	doc := "name,cuisine,rating,price,latitude,longitude\nCafe Uno,Cafe,3,$,40.71, -74.01\nShort Row,Cafe\n"

	records, err := ParseCSV(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "40.71,-74.01", records[0].Location)
	assert.Equal(t, ",", records[1].Location)
}

func TestParseCSV_HeaderErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Cuisine,Rating,Location\n"))
	assert.ErrorContains(t, err, "missing name column")

	_, err = ParseCSV(strings.NewReader("Name,Cuisine,Latitude\n"))
	assert.ErrorContains(t, err, "missing location")

	records, err := ParseCSV(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestSheetSource_LoadsOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sheetCSV))
	}))
	t.Cleanup(srv.Close)

	src := NewSheetSource(apphttp.NewClient(time.Second), srv.URL+"/export?format=csv")
	res, err := Load(context.Background(), src, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Store.Len())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, apperrors.ErrCodeInvalidCoordinate, res.Warnings[0].Code)
	assert.Equal(t, "Broken Place", res.Warnings[0].Metadata["venueId"])
}

func TestSheetSource_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := NewSheetSource(apphttp.NewClient(time.Second), srv.URL).Records(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDataSourceUnavailable))
}

// ==========================
// File Source Tests
// ==========================

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.json")
	doc := `{"version":"1","venues":[
	  {"id":"golden","name":"The Golden Spoon","cuisine":"American Fine Dining","rating":4.5,"priceTier":"$$$","address":"123 Main St","location":"40.7163,-74.0081"},
	  {"name":"Sakura Sushi Bar","cuisine":"Japanese","rating":4.7,"priceTier":"$$$","address":"789 Pine Rd","location":"40.7207,-74.0102"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	res, err := Load(context.Background(), NewFileSource(path), logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Store.Len())

	v, ok := res.Store.Lookup("golden")
	require.True(t, ok)
	assert.Equal(t, 4.5, v.Rating)
	_, ok = res.Store.Lookup("Sakura Sushi Bar")
	assert.True(t, ok)
}

func TestFileSource_Missing(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "none.json")).Records(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDataSourceUnavailable))
}

// ==========================
// Postgres Source Tests
// ==========================

var venueColumns = []string{"id", "name", "cuisine", "rating", "price_tier", "address", "phone", "hours", "website", "description", "location"}

func TestPostgresSource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(venueColumns).
		AddRow("", "Taco Libre", "Mexican", "4.1", "$", "321 Elm St", "(555) 456-7890", "", "", "", "40.7094,-74.0023").
		AddRow("cafe-1", "The Coffee House", "Cafe", "4.3", "$$", "654 Maple Dr", "", "7:00 AM - 6:00 PM", "", "", "40.7119,-74.0145")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "venues" ORDER BY position ASC LIMIT $1`)).
		WithArgs(100).
		WillReturnRows(rows)

	src := NewPostgresSource(database.NewPostgresFromDB(db), "venues", 100)
	res, err := Load(context.Background(), src, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Store.Len())
	_, ok := res.Store.Lookup("Taco Libre")
	assert.True(t, ok)
	v, ok := res.Store.Lookup("cafe-1")
	require.True(t, ok)
	assert.Equal(t, "7:00 AM - 6:00 PM", v.Hours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err = NewPostgresSource(database.NewPostgresFromDB(db), "venues", 10).Records(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDataSourceUnavailable))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPostgresSource_QuotesTable(t *testing.T) {
	src := NewPostgresSource(nil, `venues"; DROP TABLE x; --`, 1)
	assert.Contains(t, src.query(), `FROM "venues""; DROP TABLE x; --"`)
}

// ==========================
// Elasticsearch Source Tests
// ==========================

func newESServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestElasticsearchSource(t *testing.T) {
	srv := newESServer(t, http.StatusOK, `{"hits":{"hits":[
	  {"_id":"doc-1","_source":{"name":"Bella Vista Italian","cuisine":"Italian","rating":4.2,"priceTier":"$$","location":{"lat":40.7191,"lon":-73.9987}}},
	  {"_id":"doc-2","_source":{"id":"sakura","name":"Sakura Sushi Bar","cuisine":"Japanese","rating":"4.7","priceTier":"$$$","location":"40.7207,-74.0102"}},
	  {"_id":"doc-3","_source":{"name":"Taco Libre","cuisine":"Mexican","rating":4.1,"priceTier":"$","location":[-74.0023,40.7094]}},
	  {"_id":"doc-4","_source":{"name":"Lost","cuisine":"Cafe","rating":4,"priceTier":"$","location":{"lat":"x"}}}
	]}}`)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	res, err := Load(context.Background(), NewElasticsearchSource(es, "venues", 50), logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Store.Len())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, apperrors.ErrCodeInvalidCoordinate, res.Warnings[0].Code)

	v, ok := res.Store.Lookup("doc-1")
	require.True(t, ok)
	assert.Equal(t, 40.7191, v.Location.Lat)
	v, ok = res.Store.Lookup("sakura")
	require.True(t, ok)
	assert.Equal(t, 4.7, v.Rating)
	v, ok = res.Store.Lookup("doc-3")
	require.True(t, ok)
	assert.Equal(t, -74.0023, v.Location.Lon)
}

func TestElasticsearchSource_ErrorStatus(t *testing.T) {
	srv := newESServer(t, http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL})
	require.NoError(t, err)

	_, err = NewElasticsearchSource(es, "venues", 50).Records(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDataSourceUnavailable))
}

// ==========================
// Open Tests
// ==========================

func TestOpen(t *testing.T) {
	cfg := &config.Config{Datasource: config.DatasourceConfig{Kind: config.DatasourceStatic}}
	src, closeFn, err := Open(cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "static", src.Name())

	cfg.Datasource = config.DatasourceConfig{Kind: config.DatasourceFile, FilePath: "venues.json"}
	src, _, err = Open(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	cfg.Datasource = config.DatasourceConfig{Kind: "ftp"}
	_, _, err = Open(cfg, nil)
	assert.Error(t, err)
}

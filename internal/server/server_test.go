package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-finder/internal/common/logger"
	"venue-finder/internal/finder/detail"
	"venue-finder/internal/finder/findertest"
	"venue-finder/internal/finder/session"
	"venue-finder/internal/finder/store"
)

type testSnapshot struct {
	ID       string `json:"id"`
	Criteria struct {
		Cuisine   *string `json:"cuisine"`
		MinRating float64 `json:"minRating"`
		PriceTier *string `json:"priceTier"`
	} `json:"criteria"`
	Venues []struct {
		ID string `json:"id"`
	} `json:"venues"`
	Points []struct {
		ID string `json:"id"`
	} `json:"points"`
	Summary struct {
		Count int  `json:"count"`
		Empty bool `json:"empty"`
	} `json:"summary"`
	Selection *string `json:"selection"`
	Details   struct {
		Kind    detail.Kind `json:"kind"`
		Message string      `json:"message"`
	} `json:"details"`
}

func (s testSnapshot) venueIDs() []string {
	ids := make([]string, 0, len(s.Venues))
	for _, v := range s.Venues {
		ids = append(ids, v.ID)
	}
	return ids
}

type testEventResponse struct {
	Outcome   string  `json:"outcome"`
	Changed   bool    `json:"changed"`
	Selection *string `json:"selection"`
	Warning   *struct {
		Code string `json:"code"`
	} `json:"warning"`
	Session testSnapshot `json:"session"`
}

type testError struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func setupTestServer(t *testing.T, opts ...RegistryOption) (*Server, *httptest.Server) {
	t.Helper()
	log := logger.NewTestLogger(t)
	st, warnings := store.New(findertest.Ordinal(), log)
	require.Empty(t, warnings)

	cfg := session.Config{RatingMin: 1, RatingMax: 3, ToggleOnReselect: true}
	reg := NewRegistry(st, cfg, log, opts...)
	srv := New(reg, st, RatingScale{Min: 1, Max: 3, Default: 1}, WithLogger(log))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createSession(t *testing.T, ts *httptest.Server) testSnapshot {
	t.Helper()
	var snap testSnapshot
	status := doJSON(t, http.MethodPost, ts.URL+"/sessions", "", &snap)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, snap.ID)
	return snap
}

// ==========================
// Session Lifecycle
// ==========================

func TestServer_CreateSession(t *testing.T) {
	_, ts := setupTestServer(t)

	snap := createSession(t, ts)

	assert.Equal(t, []string{"taco", "bella", "coffee", "sakura", "diner"}, snap.venueIDs())
	assert.Len(t, snap.Points, 5)
	assert.Equal(t, 5, snap.Summary.Count)
	assert.Nil(t, snap.Selection)
	assert.Equal(t, detail.KindPrompt, snap.Details.Kind)
	assert.Equal(t, 1.0, snap.Criteria.MinRating)
	assert.Nil(t, snap.Criteria.Cuisine)
}

func TestServer_GetSession(t *testing.T) {
	_, ts := setupTestServer(t)
	created := createSession(t, ts)

	var snap testSnapshot
	status := doJSON(t, http.MethodGet, ts.URL+"/sessions/"+created.ID, "", &snap)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, snap.ID)
}

func TestServer_UnknownSession(t *testing.T) {
	_, ts := setupTestServer(t)

	var apiErr testError
	status := doJSON(t, http.MethodGet, ts.URL+"/sessions/nope", "", &apiErr)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "SESSION_NOT_FOUND", apiErr.Error.Code)
}

func TestServer_DeleteSession(t *testing.T) {
	_, ts := setupTestServer(t)
	snap := createSession(t, ts)

	status := doJSON(t, http.MethodDelete, ts.URL+"/sessions/"+snap.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status = doJSON(t, http.MethodGet, ts.URL+"/sessions/"+snap.ID, "", &testError{})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_SessionLimit(t *testing.T) {
	_, ts := setupTestServer(t, WithMaxSessions(1))
	createSession(t, ts)

	var apiErr testError
	status := doJSON(t, http.MethodPost, ts.URL+"/sessions", "", &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "SESSION_LIMIT_REACHED", apiErr.Error.Code)
}

// ==========================
// Criteria
// ==========================

func TestServer_CriteriaPartialUpdates(t *testing.T) {
	_, ts := setupTestServer(t)
	url := ts.URL + "/sessions/" + createSession(t, ts).ID + "/criteria"

	var snap testSnapshot
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, url, `{"minRating": 2}`, &snap))
	assert.Equal(t, []string{"bella", "sakura"}, snap.venueIDs())

	snap = testSnapshot{}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, url, `{"priceTier": "$$"}`, &snap))
	assert.Equal(t, []string{"bella"}, snap.venueIDs())
	assert.Equal(t, 2.0, snap.Criteria.MinRating)

	snap = testSnapshot{}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, url, `{"priceTier": null}`, &snap))
	assert.Equal(t, []string{"bella", "sakura"}, snap.venueIDs())
	assert.Nil(t, snap.Criteria.PriceTier)
}

func TestServer_CriteriaRatingClampedToScale(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantRating float64
		wantIDs    []string
	}{
		{name: "above scale", body: `{"minRating": 4}`, wantRating: 3, wantIDs: []string{"sakura"}},
		{name: "below scale", body: `{"minRating": 0.5}`, wantRating: 1, wantIDs: []string{"taco", "bella", "coffee", "sakura", "diner"}},
	}

	_, ts := setupTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := ts.URL + "/sessions/" + createSession(t, ts).ID + "/criteria"

			var snap testSnapshot
			require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, url, tt.body, &snap))
			assert.Equal(t, tt.wantRating, snap.Criteria.MinRating)
			assert.Equal(t, tt.wantIDs, snap.venueIDs())
		})
	}
}

func TestServer_CriteriaToEmptySet(t *testing.T) {
	_, ts := setupTestServer(t)
	url := ts.URL + "/sessions/" + createSession(t, ts).ID + "/criteria"

	var snap testSnapshot
	status := doJSON(t, http.MethodPut, url, `{"cuisine": "Cafe", "minRating": 3}`, &snap)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, snap.Venues)
	assert.True(t, snap.Summary.Empty)
	assert.Equal(t, detail.KindEmpty, snap.Details.Kind)
	assert.Equal(t, detail.EmptyMessage, snap.Details.Message)
}

func TestServer_CriteriaRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: `{"stars": 2}`},
		{name: "rating not a number", body: `{"minRating": "high"}`},
		{name: "unknown cuisine", body: `{"cuisine": "Klingon"}`},
		{name: "unknown price tier", body: `{"priceTier": "$$$$"}`},
		{name: "not json", body: `cuisine=Cafe`},
		{name: "empty body", body: ``},
	}

	_, ts := setupTestServer(t)
	id := createSession(t, ts).ID
	url := ts.URL + "/sessions/" + id + "/criteria"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr testError
			status := doJSON(t, http.MethodPut, url, tt.body, &apiErr)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "INVALID_FILTER_FORMAT", apiErr.Error.Code)
		})
	}

	var snap testSnapshot
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/sessions/"+id, "", &snap))
	assert.Len(t, snap.Venues, 5)
	assert.Equal(t, 1.0, snap.Criteria.MinRating)
}

// ==========================
// Events
// ==========================

func TestServer_MarkerClickThenToggle(t *testing.T) {
	_, ts := setupTestServer(t)
	url := ts.URL + "/sessions/" + createSession(t, ts).ID + "/events"

	var res testEventResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, `{"type":"marker_click","index":1}`, &res))
	assert.Equal(t, "selected", res.Outcome)
	require.NotNil(t, res.Selection)
	assert.Equal(t, "bella", *res.Selection)
	assert.Equal(t, detail.KindSingle, res.Session.Details.Kind)

	res = testEventResponse{}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, `{"type":"row_click","index":1}`, &res))
	assert.Equal(t, "toggled", res.Outcome)
	assert.Nil(t, res.Selection)
}

func TestServer_SelectionSurvivesRefilterByID(t *testing.T) {
	_, ts := setupTestServer(t)
	base := ts.URL + "/sessions/" + createSession(t, ts).ID

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/events", `{"type":"marker_click","index":3}`, &testEventResponse{}))

	var snap testSnapshot
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, base+"/criteria", `{"minRating": 2}`, &snap))
	require.NotNil(t, snap.Selection)
	assert.Equal(t, "sakura", *snap.Selection)

	var res testEventResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/events", `{"type":"row_click","index":0}`, &res))
	require.NotNil(t, res.Selection)
	assert.Equal(t, "bella", *res.Selection)
}

func TestServer_StaleIndexResetsWithWarning(t *testing.T) {
	_, ts := setupTestServer(t)
	url := ts.URL + "/sessions/" + createSession(t, ts).ID + "/events"

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, `{"type":"marker_click","index":0}`, &testEventResponse{}))

	var res testEventResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, `{"type":"row_click","index":42}`, &res))
	assert.Equal(t, "stale", res.Outcome)
	assert.True(t, res.Changed)
	assert.Nil(t, res.Selection)
	require.NotNil(t, res.Warning)
	assert.Equal(t, "STALE_SELECTION_REFERENCE", res.Warning.Code)
}

func TestServer_EmptyClickAndListSelect(t *testing.T) {
	_, ts := setupTestServer(t)
	url := ts.URL + "/sessions/" + createSession(t, ts).ID + "/events"

	var res testEventResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, `{"type":"list_select","id":"coffee"}`, &res))
	require.NotNil(t, res.Selection)
	assert.Equal(t, "coffee", *res.Selection)

	res = testEventResponse{}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, `{"type":"empty_click"}`, &res))
	assert.Equal(t, "cleared", res.Outcome)
	assert.Nil(t, res.Selection)
}

func TestServer_EventIndexAsIntegralFloat(t *testing.T) {
	_, ts := setupTestServer(t)
	url := ts.URL + "/sessions/" + createSession(t, ts).ID + "/events"

	var res testEventResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, `{"type":"marker_click","index":2.0}`, &res))
	require.NotNil(t, res.Selection)
	assert.Equal(t, "coffee", *res.Selection)

	res = testEventResponse{}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, `{"type":"row_click","index":3.0}`, &res))
	require.NotNil(t, res.Selection)
	assert.Equal(t, "sakura", *res.Selection)
}

func TestServer_InvalidEvents(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown type", body: `{"type":"double_click"}`},
		{name: "missing type", body: `{"index":1}`},
		{name: "marker without index", body: `{"type":"marker_click"}`},
		{name: "fractional index", body: `{"type":"row_click","index":1.5}`},
		{name: "list select without id", body: `{"type":"list_select"}`},
		{name: "not json", body: `click`},
	}

	_, ts := setupTestServer(t)
	url := ts.URL + "/sessions/" + createSession(t, ts).ID + "/events"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr testError
			status := doJSON(t, http.MethodPost, url, tt.body, &apiErr)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "INVALID_EVENT", apiErr.Error.Code)
		})
	}
}

func TestServer_Details(t *testing.T) {
	_, ts := setupTestServer(t)
	base := ts.URL + "/sessions/" + createSession(t, ts).ID

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/events", `{"type":"marker_click","index":4}`, &testEventResponse{}))

	var view detail.View
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/details", "", &view))
	venue, ok := view.Selected()
	require.True(t, ok)
	assert.Equal(t, "diner", venue.ID)
	assert.Equal(t, "Corner Diner", venue.Name)
}

// ==========================
// Options & Health
// ==========================

func TestServer_Options(t *testing.T) {
	_, ts := setupTestServer(t)

	var opts optionsResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/options", "", &opts))
	assert.Equal(t, []string{"Mexican", "Italian", "Cafe", "Japanese", "American"}, opts.Cuisines)
	assert.Equal(t, []string{"$", "$$", "$$$"}, opts.PriceTiers)
	assert.Equal(t, RatingScale{Min: 1, Max: 3, Default: 1}, opts.RatingScale)
	assert.Equal(t, 5, opts.Venues)
}

func TestServer_HealthAndReady(t *testing.T) {
	srv, ts := setupTestServer(t)

	var body map[string]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/health", "", &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["time"])

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/ready", "", &body))
	assert.Equal(t, "ready", body["status"])

	srv.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodGet, ts.URL+"/ready", "", &body))
}

func TestServer_ReadinessChecks(t *testing.T) {
	log := logger.NewTestLogger(t)
	st, _ := store.New(findertest.Ordinal(), log)
	reg := NewRegistry(st, session.DefaultConfig(), log)

	var healthy atomic.Bool
	healthy.Store(true)
	srv := New(reg, st, RatingScale{Min: 1, Max: 5, Default: 1},
		WithLogger(log),
		WithReadinessCheck("zeebe", func(context.Context) error {
			if healthy.Load() {
				return nil
			}
			return errors.New("broker unavailable")
		}),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	var body map[string]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/ready", "", &body))

	healthy.Store(false)
	body = nil
	require.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodGet, ts.URL+"/ready", "", &body))
	assert.Equal(t, "zeebe", body["check"])
}

func TestServer_Metrics(t *testing.T) {
	_, ts := setupTestServer(t)
	createSession(t, ts)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), "venue_finder_sessions_active")
}

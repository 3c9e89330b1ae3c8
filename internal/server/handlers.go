package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	apperrors "venue-finder/internal/common/errors"
	"venue-finder/internal/common/validation"
	"venue-finder/internal/finder/reconciler"
	"venue-finder/internal/finder/session"
	"venue-finder/internal/models"
)

const readyTimeout = 2 * time.Second

var criteriaSchema = validation.MustCompile(`{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"cuisine":   {"type": ["string", "null"], "minLength": 1},
		"minRating": {"type": "number"},
		"priceTier": {"type": ["string", "null"], "minLength": 1}
	}
}`)

var eventSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["type"],
	"properties": {
		"type":  {"enum": ["marker_click", "row_click", "empty_click", "list_select"]},
		"index": {"type": "integer"},
		"id":    {"type": "string", "minLength": 1}
	},
	"allOf": [
		{
			"if":   {"properties": {"type": {"enum": ["marker_click", "row_click"]}}},
			"then": {"required": ["index"]}
		},
		{
			"if":   {"properties": {"type": {"const": "list_select"}}},
			"then": {"required": ["id"]}
		}
	]
}`)

// ==========================
// Sessions
// ==========================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Create()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.registry.Delete(id) {
		s.writeError(w, apperrors.NewSessionNotFoundError(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Details())
}

// ==========================
// Criteria
// ==========================

// handleCriteria applies a partial criteria update. Absent fields keep
// their current value; a JSON null clears cuisine or price tier.
func (s *Server) handleCriteria(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, apperrors.NewInvalidFilterFormatError(err.Error()))
		return
	}
	if err := checkSchema(criteriaSchema, body); err != nil {
		s.writeError(w, apperrors.NewInvalidFilterFormatError(err.Error()))
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		s.writeError(w, apperrors.NewInvalidFilterFormatError(err.Error()))
		return
	}
	patch, err := decodeCriteriaPatch(fields)
	if err != nil {
		s.writeError(w, apperrors.NewInvalidFilterFormatError(err.Error()))
		return
	}

	snap, err := sess.UpdateCriteria(patch.apply)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type criteriaPatch struct {
	cuisine, priceTier       *string
	setCuisine, setPriceTier bool
	minRating                *float64
}

func decodeCriteriaPatch(fields map[string]json.RawMessage) (criteriaPatch, error) {
	var p criteriaPatch
	if raw, ok := fields["cuisine"]; ok {
		p.setCuisine = true
		if err := json.Unmarshal(raw, &p.cuisine); err != nil {
			return p, fmt.Errorf("cuisine: %w", err)
		}
	}
	if raw, ok := fields["priceTier"]; ok {
		p.setPriceTier = true
		if err := json.Unmarshal(raw, &p.priceTier); err != nil {
			return p, fmt.Errorf("priceTier: %w", err)
		}
	}
	if raw, ok := fields["minRating"]; ok {
		if err := json.Unmarshal(raw, &p.minRating); err != nil {
			return p, fmt.Errorf("minRating: %w", err)
		}
	}
	return p, nil
}

func (p criteriaPatch) apply(c models.Criteria) models.Criteria {
	if p.setCuisine {
		c.Cuisine = p.cuisine
	}
	if p.setPriceTier {
		c.PriceTier = p.priceTier
	}
	if p.minRating != nil {
		c.MinRating = *p.minRating
	}
	return c
}

// ==========================
// Events
// ==========================

// Index is a json.Number so integral literals such as 2.0, which the
// schema accepts as integers, decode the same as 2.
type eventRequest struct {
	Type  string       `json:"type"`
	Index *json.Number `json:"index"`
	ID    string       `json:"id"`
}

func (e eventRequest) index() (int, error) {
	f, err := e.Index.Float64()
	if err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("index %s is not an integer", e.Index.String())
	}
	return int(f), nil
}

func (e eventRequest) toEvent() (reconciler.Event, error) {
	switch e.Type {
	case "marker_click", "row_click":
		idx, err := e.index()
		if err != nil {
			return nil, err
		}
		if e.Type == "marker_click" {
			return reconciler.MarkerClick{Index: idx}, nil
		}
		return reconciler.RowClick{Index: idx}, nil
	case "list_select":
		return reconciler.ListSelect{ID: e.ID}, nil
	case "empty_click":
		return reconciler.EmptyClick{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

type eventResponse struct {
	Trigger   string                   `json:"trigger"`
	Outcome   reconciler.Outcome       `json:"outcome"`
	Changed   bool                     `json:"changed"`
	Previous  *string                  `json:"previous"`
	Selection *string                  `json:"selection"`
	Warning   *apperrors.StandardError `json:"warning,omitempty"`
	Session   session.Snapshot         `json:"session"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, apperrors.NewInvalidEventError(err.Error()))
		return
	}
	if err := checkSchema(eventSchema, body); err != nil {
		s.writeError(w, apperrors.NewInvalidEventError(err.Error()))
		return
	}

	var req eventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, apperrors.NewInvalidEventError(err.Error()))
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		s.writeError(w, apperrors.NewInvalidEventError(err.Error()))
		return
	}

	res, snap := sess.DispatchSnapshot(ev)
	writeJSON(w, http.StatusOK, eventResponse{
		Trigger:   res.Trigger,
		Outcome:   res.Outcome,
		Changed:   res.Changed(),
		Previous:  idPtr(res.Previous.ID()),
		Selection: idPtr(res.Current.ID()),
		Warning:   res.Warning,
		Session:   snap,
	})
}

func idPtr(id string, ok bool) *string {
	if !ok {
		return nil
	}
	return &id
}

// ==========================
// Options & Health
// ==========================

type optionsResponse struct {
	Cuisines    []string    `json:"cuisines"`
	PriceTiers  []string    `json:"priceTiers"`
	RatingScale RatingScale `json:"ratingScale"`
	Venues      int         `json:"venues"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Cuisines:    s.store.Cuisines(),
		PriceTiers:  s.store.PriceTiers(),
		RatingScale: s.scale,
		Venues:      s.store.Len(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	now := time.Now().Format(time.RFC3339)
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"time":   now,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.log.Warn("readiness check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"check":  name,
				"time":   now,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   now,
	})
}

// ==========================
// Request Helpers
// ==========================

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("empty request body")
	}
	return body, nil
}

func checkSchema(schema *validation.Schema, body []byte) error {
	result, err := schema.ValidateBytes(body)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%s", strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

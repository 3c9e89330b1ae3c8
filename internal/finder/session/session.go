// Package session wires the finder core into one user session: criteria
// input, filter pipeline, reconciler and detail projection.
package session

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	apperrors "venue-finder/internal/common/errors"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/common/metrics"
	"venue-finder/internal/finder/detail"
	"venue-finder/internal/finder/filter"
	"venue-finder/internal/finder/reconciler"
	"venue-finder/internal/finder/store"
	"venue-finder/internal/models"
)

// Config is the per-deployment finder behaviour.
type Config struct {
	RatingMin             float64
	RatingMax             float64
	ShowAllWhenUnselected bool
	ToggleOnReselect      bool
}

// DefaultConfig is the continuous 1.0..5.0 scale with toggle on reselect.
func DefaultConfig() Config {
	return Config{RatingMin: 1.0, RatingMax: 5.0, ToggleOnReselect: true}
}

// Recorder receives pipeline and event measurements.
type Recorder interface {
	RecordPipelineRun(ctx context.Context, size int, duration time.Duration)
	RecordEvent(ctx context.Context, kind, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordPipelineRun(context.Context, int, time.Duration) {}
func (nopRecorder) RecordEvent(context.Context, string, string)           {}

type Option func(*Session)

func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Session is safe for concurrent use. Each exported call is one
// indivisible criteria, filter, reconcile pass.
type Session struct {
	mu       sync.Mutex
	id       string
	store    *store.Store
	cfg      Config
	criteria models.Criteria
	rec      *reconciler.Reconciler
	log      logger.Logger
	recorder Recorder
}

// New starts a session with no cuisine or price constraint and the rating
// floor at the bottom of the scale, already filtered.
func New(id string, st *store.Store, cfg Config, log logger.Logger, opts ...Option) *Session {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Session{
		id:       id,
		store:    st,
		cfg:      cfg,
		rec:      reconciler.New(reconciler.WithToggleOnReselect(cfg.ToggleOnReselect)),
		log:      log.WithFields(map[string]interface{}{"component": "session", "sessionId": id}),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refilter(models.Criteria{MinRating: cfg.RatingMin})
	return s
}

func (s *Session) ID() string {
	return s.id
}

// ==========================
// Criteria Input
// ==========================

// SetCuisine constrains the cuisine; nil means all cuisines.
func (s *Session) SetCuisine(label *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.criteria
	next.Cuisine = label
	return s.setCriteria(next)
}

// SetMinRating sets the inclusive rating floor.
func (s *Session) SetMinRating(rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.criteria
	next.MinRating = rating
	return s.setCriteria(next)
}

// SetPriceTier constrains the price tier; nil means all tiers.
func (s *Session) SetPriceTier(symbol *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.criteria
	next.PriceTier = symbol
	return s.setCriteria(next)
}

// SetCriteria replaces all three fields in a single pass.
func (s *Session) SetCriteria(c models.Criteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCriteria(c)
}

// UpdateCriteria derives the next criteria from the current ones, applies
// them and snapshots the result in the same pass.
func (s *Session) UpdateCriteria(fn func(models.Criteria) models.Criteria) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setCriteria(fn(s.criteria)); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

func (s *Session) Criteria() models.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

func (s *Session) setCriteria(c models.Criteria) error {
	if err := s.validate(c); err != nil {
		s.log.Debug("criteria rejected", map[string]interface{}{
			"criteria": c.String(),
			"error":    err.Error(),
		})
		return err
	}
	s.refilter(s.clamp(c))
	return nil
}

// validate rejects labels the store does not carry and a NaN rating.
// A rejected change leaves the session untouched.
func (s *Session) validate(c models.Criteria) error {
	if c.Cuisine != nil && !s.store.HasCuisine(*c.Cuisine) {
		return apperrors.NewInvalidFilterFormatError(fmt.Sprintf("unknown cuisine %q", *c.Cuisine))
	}
	if c.PriceTier != nil && !s.store.HasPriceTier(*c.PriceTier) {
		return apperrors.NewInvalidFilterFormatError(fmt.Sprintf("unknown price tier %q", *c.PriceTier))
	}
	if math.IsNaN(c.MinRating) {
		return apperrors.NewInvalidFilterFormatError("minRating is not a number")
	}
	return nil
}

// clamp pins the rating floor to the configured scale.
func (s *Session) clamp(c models.Criteria) models.Criteria {
	rating := math.Min(math.Max(c.MinRating, s.cfg.RatingMin), s.cfg.RatingMax)
	if rating != c.MinRating {
		s.log.Debug("minRating clamped to scale", map[string]interface{}{
			"requested": c.MinRating,
			"applied":   rating,
		})
		c.MinRating = rating
	}
	return c
}

func (s *Session) refilter(c models.Criteria) {
	start := time.Now()
	s.criteria = c
	set := filter.Apply(s.store.View(), c)
	res := s.rec.Refilter(set)

	metrics.FilterRuns.Inc()
	metrics.FilteredSetSize.Observe(float64(set.Len()))
	s.recorder.RecordPipelineRun(context.Background(), set.Len(), time.Since(start))

	if res.Outcome == reconciler.OutcomeReset {
		metrics.StaleSelectionResets.WithLabelValues("criteria").Inc()
		s.log.Info("selection reset by criteria change", map[string]interface{}{
			"previous": res.Previous.String(),
			"criteria": c.String(),
		})
	}
	if set.IsEmpty() {
		s.log.Debug("no venues match criteria", map[string]interface{}{
			"criteria": c.String(),
		})
	}
}

// ==========================
// View Events
// ==========================

func (s *Session) OnMarkerClick(pointIndex int) reconciler.Result {
	return s.Dispatch(reconciler.MarkerClick{Index: pointIndex})
}

func (s *Session) OnRowClick(rowIndex int) reconciler.Result {
	return s.Dispatch(reconciler.RowClick{Index: rowIndex})
}

func (s *Session) OnEmptyAreaClick() reconciler.Result {
	return s.Dispatch(reconciler.EmptyClick{})
}

// OnListSelect selects a venue by id from a list control.
func (s *Session) OnListSelect(id string) reconciler.Result {
	return s.Dispatch(reconciler.ListSelect{ID: id})
}

// Dispatch applies one event. Events never fail; an unresolvable reference
// resets the selection and is reported on the result.
func (s *Session) Dispatch(ev reconciler.Event) reconciler.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(ev)
}

// DispatchSnapshot is Dispatch followed by Snapshot without releasing the
// session in between.
func (s *Session) DispatchSnapshot(ev reconciler.Event) (reconciler.Result, Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.dispatch(ev)
	return res, s.snapshot()
}

func (s *Session) dispatch(ev reconciler.Event) reconciler.Result {
	res := s.rec.Apply(ev)

	metrics.SelectionTransitions.WithLabelValues(res.Trigger, string(res.Outcome)).Inc()
	s.recorder.RecordEvent(context.Background(), res.Trigger, string(res.Outcome))

	if res.Warning != nil {
		metrics.StaleSelectionResets.WithLabelValues("event").Inc()
		s.log.Debug("stale selection reference", map[string]interface{}{
			"event":   res.Trigger,
			"details": res.Warning.Details,
		})
	}
	return res
}

// ==========================
// View Output
// ==========================

// CurrentFilteredSet returns the filtered venues in store order.
func (s *Session) CurrentFilteredSet() []models.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Set().Venues()
}

// CurrentSelection returns the selected venue id, if any.
func (s *Session) CurrentSelection() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Selection().ID()
}

func (s *Session) Details() detail.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return detail.For(s.rec.Selection(), s.rec.Set(), s.cfg.ShowAllWhenUnselected)
}

// Snapshot is everything a view adapter renders, read in one pass.
type Snapshot struct {
	ID        string            `json:"id"`
	Criteria  models.Criteria   `json:"criteria"`
	Venues    []models.Venue    `json:"venues"`
	Points    []models.MapPoint `json:"points"`
	Summary   filter.Summary    `json:"summary"`
	Selection *string           `json:"selection"`
	Details   detail.View       `json:"details"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	set := s.rec.Set()
	snap := Snapshot{
		ID:       s.id,
		Criteria: s.criteria,
		Venues:   set.Venues(),
		Points:   set.Points(),
		Summary:  filter.Summarize(set),
		Details:  detail.For(s.rec.Selection(), set, s.cfg.ShowAllWhenUnselected),
	}
	if id, ok := s.rec.Selection().ID(); ok {
		snap.Selection = &id
	}
	return snap
}

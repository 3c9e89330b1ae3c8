// Package reconciler resolves view events and filter changes into selection
// state transitions.
package reconciler

import (
	apperrors "venue-finder/internal/common/errors"
	"venue-finder/internal/finder/filter"
	"venue-finder/internal/finder/selection"
)

// Outcome classifies a transition.
type Outcome string

const (
	// OutcomeSelected means a venue other than the current one was selected.
	OutcomeSelected Outcome = "selected"
	// OutcomeToggled means the selected venue was clicked again and deselected.
	OutcomeToggled Outcome = "toggled"
	// OutcomeUnchanged means the selected venue was chosen again and kept.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeCleared means an empty-area click reset the selection.
	OutcomeCleared Outcome = "cleared"
	// OutcomeStale means the event did not resolve in the current set and
	// was treated as an empty-area click.
	OutcomeStale Outcome = "stale"
	// OutcomeRetained means a refilter kept the selection, or nothing was
	// selected.
	OutcomeRetained Outcome = "retained"
	// OutcomeReset means a refilter dropped the selected venue.
	OutcomeReset Outcome = "reset"
)

// Result reports one transition. Warning is set for OutcomeStale only.
type Result struct {
	Trigger  string
	Outcome  Outcome
	Previous selection.State
	Current  selection.State
	Warning  *apperrors.StandardError
}

// Changed reports whether the selection moved.
func (r Result) Changed() bool {
	return r.Previous != r.Current
}

// Reconciler owns the selection state and the filtered set it is checked
// against. It is not safe for concurrent use; callers serialize passes.
type Reconciler struct {
	set              *filter.Set
	state            selection.State
	toggleOnReselect bool
}

type Option func(*Reconciler)

// WithToggleOnReselect sets whether clicking the selected venue again
// deselects it (the default) or leaves it selected.
func WithToggleOnReselect(toggle bool) Option {
	return func(r *Reconciler) { r.toggleOnReselect = toggle }
}

// New returns a Reconciler in the Unselected state with no filtered set.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{toggleOnReselect: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) Selection() selection.State {
	return r.state
}

// Set returns the filtered set events are resolved against, nil before the
// first Refilter.
func (r *Reconciler) Set() *filter.Set {
	return r.set
}

// Refilter installs a new filtered set and clears the selection if its
// venue is not a member.
func (r *Reconciler) Refilter(set *filter.Set) Result {
	prev := r.state
	r.set = set

	id, ok := prev.ID()
	if !ok || set.Contains(id) {
		return Result{Trigger: "refilter", Outcome: OutcomeRetained, Previous: prev, Current: prev}
	}
	r.state = selection.None()
	return Result{Trigger: "refilter", Outcome: OutcomeReset, Previous: prev, Current: r.state}
}

// Apply resolves ev against the current set. Positions are converted to ids
// here, before anything is stored. The last event applied wins.
func (r *Reconciler) Apply(ev Event) Result {
	switch e := ev.(type) {
	case MarkerClick:
		return r.click(e.Kind(), "marker", e.Index)
	case RowClick:
		return r.click(e.Kind(), "row", e.Index)
	case ListSelect:
		return r.choose(e)
	default:
		trigger := EmptyClick{}.Kind()
		if ev != nil {
			trigger = ev.Kind()
		}
		return r.transition(trigger, OutcomeCleared, selection.None(), nil)
	}
}

func (r *Reconciler) click(trigger, surface string, index int) Result {
	v, ok := r.set.At(index)
	if !ok {
		return r.transition(trigger, OutcomeStale, selection.None(),
			apperrors.NewStaleSelectionReferenceError(surface, index, r.set.Len()))
	}
	if r.state.Is(v.ID) {
		if r.toggleOnReselect {
			return r.transition(trigger, OutcomeToggled, selection.None(), nil)
		}
		return r.transition(trigger, OutcomeUnchanged, r.state, nil)
	}
	return r.transition(trigger, OutcomeSelected, selection.Of(v.ID), nil)
}

func (r *Reconciler) choose(e ListSelect) Result {
	if !r.set.Contains(e.ID) {
		warn := apperrors.NewStaleSelectionReferenceError("list", -1, r.set.Len()).
			WithMetadata(map[string]interface{}{"venueId": e.ID})
		return r.transition(e.Kind(), OutcomeStale, selection.None(), warn)
	}
	if r.state.Is(e.ID) {
		return r.transition(e.Kind(), OutcomeUnchanged, r.state, nil)
	}
	return r.transition(e.Kind(), OutcomeSelected, selection.Of(e.ID), nil)
}

func (r *Reconciler) transition(trigger string, outcome Outcome, next selection.State, warn *apperrors.StandardError) Result {
	prev := r.state
	r.state = next
	return Result{Trigger: trigger, Outcome: outcome, Previous: prev, Current: next, Warning: warn}
}

// Package detail projects selection state onto what a detail panel shows.
package detail

import (
	"venue-finder/internal/finder/filter"
	"venue-finder/internal/finder/selection"
	"venue-finder/internal/models"
)

// Kind tags the variant of a View.
type Kind string

const (
	// KindPrompt asks the user to pick a venue.
	KindPrompt Kind = "prompt"
	// KindAll lists every venue in the filtered set, in set order.
	KindAll Kind = "all"
	// KindSingle holds the selected venue's full record.
	KindSingle Kind = "single"
	// KindEmpty is the explicit "nothing matches" state.
	KindEmpty Kind = "empty"
)

const (
	PromptMessage = "Select a restaurant on the map or in the table to see its details."
	EmptyMessage  = "No restaurants match your filters. Try adjusting your criteria."
)

// View is the detail panel content.
type View struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message,omitempty"`
	Venues  []models.Venue `json:"venues"`
}

// Selected returns the single venue of a KindSingle view.
func (v View) Selected() (models.Venue, bool) {
	if v.Kind != KindSingle || len(v.Venues) != 1 {
		return models.Venue{}, false
	}
	return v.Venues[0], true
}

// For builds the detail view. The selected venue is resolved through the
// set's id index. A selection that does not resolve is shown as no
// selection; a nil set is shown as the prompt.
func For(sel selection.State, set *filter.Set, showAllWhenUnselected bool) View {
	if set == nil {
		return View{Kind: KindPrompt, Message: PromptMessage}
	}
	if set.IsEmpty() {
		return View{Kind: KindEmpty, Message: EmptyMessage, Venues: []models.Venue{}}
	}
	if id, ok := sel.ID(); ok {
		if v, found := set.Lookup(id); found {
			return View{Kind: KindSingle, Venues: []models.Venue{v}}
		}
	}
	if showAllWhenUnselected {
		return View{Kind: KindAll, Venues: set.Venues()}
	}
	return View{Kind: KindPrompt, Message: PromptMessage}
}

// Package selection defines the at-most-one selected venue identity.
package selection

// State is Unselected or Selected(id). The zero value is Unselected.
// Selection is always by venue id, never by position.
type State struct {
	id       string
	selected bool
}

// None returns the Unselected state.
func None() State {
	return State{}
}

// Of returns Selected(id).
func Of(id string) State {
	return State{id: id, selected: true}
}

func (s State) ID() (string, bool) {
	return s.id, s.selected
}

func (s State) IsSelected() bool {
	return s.selected
}

// Is reports whether s is Selected(id).
func (s State) Is(id string) bool {
	return s.selected && s.id == id
}

func (s State) String() string {
	if !s.selected {
		return "Unselected"
	}
	return "Selected(" + s.id + ")"
}

// MarshalText renders Selected(id) as the id and Unselected as empty.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.id), nil
}

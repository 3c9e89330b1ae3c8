package reconciler

// Event is a single user gesture from a view surface. The set of events is
// closed: MarkerClick, RowClick, ListSelect and EmptyClick.
type Event interface {
	// Kind names the event for logs and metrics.
	Kind() string
	isEvent()
}

// MarkerClick is a click on the map marker at Index in point order.
type MarkerClick struct {
	Index int
}

// RowClick is a click on the table row at Index in set order.
type RowClick struct {
	Index int
}

// ListSelect picks a venue by id from a list control such as a details
// dropdown. Choosing the venue that is already selected leaves it selected.
type ListSelect struct {
	ID string
}

// EmptyClick is a click on the map or table that hit no venue.
type EmptyClick struct{}

func (MarkerClick) Kind() string { return "marker_click" }
func (RowClick) Kind() string    { return "row_click" }
func (ListSelect) Kind() string  { return "list_select" }
func (EmptyClick) Kind() string  { return "empty_click" }

func (MarkerClick) isEvent() {}
func (RowClick) isEvent()    {}
func (ListSelect) isEvent()  {}
func (EmptyClick) isEvent()  {}

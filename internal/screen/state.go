// Package screen holds the per-screen state projectors. Each projector turns
// favorite changes and price API results into one State for its screen.
package screen

// State is what a screen displays. It is one of Loading, Success[T], Empty
// or Error. A projector replaces its State on every event and never mutates
// one in place.
type State interface {
	isState()
}

// Loading means a fetch is in flight.
type Loading struct{}

// Empty means there is nothing to show.
type Empty struct{}

// Error carries a message fit for display.
type Error struct {
	Message string
}

// Success carries the screen payload.
type Success[T any] struct {
	Payload T
}

func (Loading) isState()    {}
func (Empty) isState()      {}
func (Error) isState()      {}
func (Success[T]) isState() {}

// Messages shown for failures whose underlying error is not displayed.
const (
	FavoritesLoadErrorMessage = "Error loading favorites"
	MarketsLoadErrorMessage   = "Error loading markets"
	UnknownErrorMessage       = "Unknown error"
)

// Name returns a short label for s, used in logs.
func Name(s State) string {
	switch s.(type) {
	case Loading:
		return "loading"
	case Empty:
		return "empty"
	case Error:
		return "error"
	case nil:
		return "none"
	default:
		return "success"
	}
}

// PayloadOf returns the payload when s is a Success[T].
func PayloadOf[T any](s State) (T, bool) {
	if v, ok := s.(Success[T]); ok {
		return v.Payload, true
	}
	var zero T
	return zero, false
}

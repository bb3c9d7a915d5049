package wizard

import "errors"

var (
	// ErrNotAllowed is returned for an event the current state does not accept,
	// such as drawing a box in boundary mode.
	ErrNotAllowed = errors.New("not allowed in the current state")
	// ErrInvalidPlace is returned when selecting a suggestion marked unusable.
	ErrInvalidPlace = errors.New("place cannot be used as a map area")
	// ErrUnknownPaper is returned when selecting a paper size outside the
	// last fetched allowed list.
	ErrUnknownPaper = errors.New("paper size not allowed for this area")
	// ErrOrientation is returned when selecting an orientation the paper
	// size does not permit.
	ErrOrientation = errors.New("orientation not allowed for this paper size")
	// ErrUnknownOption is returned for a layout, stylesheet or language that
	// is not in the catalog.
	ErrUnknownOption = errors.New("unknown option")
	// ErrNoSession is returned by the store for unknown or expired ids.
	ErrNoSession = errors.New("wizard session not found")
)

package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joeblew999/plat-mapwizard/internal/geo"
)

// NudgeStep is how far an arrow key moves a bbox field value.
const NudgeStep = 0.01

// Bbox field names as posted by the form.
const (
	FieldLatUpperLeft   = "lat_upper_left"
	FieldLonUpperLeft   = "lon_upper_left"
	FieldLatBottomRight = "lat_bottom_right"
	FieldLonBottomRight = "lon_bottom_right"
)

// AreaSelector keeps the bounding box selection, the four bbox fields and the
// map viewport in sync.
type AreaSelector struct {
	st    *State
	view  *geo.Viewport
	maxKm float64

	// suppress is set while the selector moves the map itself, so the move
	// event does not write back into the fields.
	suppress bool

	// settled is called with every accepted, non-oversized box.
	settled func(geo.Bounds)
	// unsettled is called when the selection stops being such a box.
	unsettled func()
}

// NewAreaSelector creates a selector bound to view. settled may be nil.
func NewAreaSelector(st *State, view *geo.Viewport, maxKm float64, settled func(geo.Bounds)) *AreaSelector {
	a := &AreaSelector{st: st, view: view, maxKm: maxKm, settled: settled}
	view.OnMove(a.OnMapPanZoom)
	return a
}

// OnUnsettled registers fn to run whenever the selection is cleared, fails
// to parse, or exceeds the size limit.
func (a *AreaSelector) OnUnsettled(fn func()) {
	a.unsettled = fn
}

func (a *AreaSelector) unsettle() {
	a.st.Area.Country = ""
	if a.unsettled != nil {
		a.unsettled()
	}
}

// OnBoxDrawn stores the rectangle drawn on screen as the selection, replacing
// any previous overlay, and writes the four fields. A rectangle without area
// is ignored.
func (a *AreaSelector) OnBoxDrawn(r geo.PixelRect) bool {
	b, ok := a.view.PixelRect(r)
	if !ok {
		return false
	}
	b = b.Round()
	if !b.Valid() {
		return false
	}
	a.st.Area.Box = BoundingBox{Bounds: b, Set: true, Drawn: true}
	a.st.Fields = b.Fields()
	a.check()
	return true
}

// OnFieldsEdited reads the four fields and moves the map to match. The fields
// themselves are kept as typed.
func (a *AreaSelector) OnFieldsEdited(f geo.FieldSet) error {
	a.st.Fields = f
	b, err := geo.ParseFields(f)
	if err != nil {
		a.st.Area.Box = BoundingBox{}
		a.unsettle()
		a.st.SetNotice(ControlArea, NoticeWarning, "Enter four valid coordinates to select an area.")
		return err
	}
	a.st.Area.Box = BoundingBox{Bounds: b.Normalize(), Set: true}
	a.fit(a.st.Area.Box.Bounds)
	a.check()
	return nil
}

// OnMapPanZoom records the visible extent. Moves caused by the selector
// itself are ignored.
func (a *AreaSelector) OnMapPanZoom(extent geo.Bounds) {
	if a.suppress {
		return
	}
	a.st.Visible = extent.Round()
}

// Nudge moves one bbox field by delta and applies the edit. It does nothing
// while a drawn overlay is shown or when the field holds no number.
func (a *AreaSelector) Nudge(field string, delta float64) bool {
	if a.st.Area.Box.Drawn {
		return false
	}
	f := a.st.Fields
	var target *string
	switch field {
	case FieldLatUpperLeft:
		target = &f.LatUpperLeft
	case FieldLonUpperLeft:
		target = &f.LonUpperLeft
	case FieldLatBottomRight:
		target = &f.LatBottomRight
	case FieldLonBottomRight:
		target = &f.LonBottomRight
	default:
		return false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*target), 64)
	if err != nil {
		return false
	}
	*target = strconv.FormatFloat(v+delta, 'f', geo.FieldPrecision, 64)
	a.OnFieldsEdited(f)
	return true
}

// Clear removes the overlay and the box selection.
func (a *AreaSelector) Clear() {
	a.st.Area.Box = BoundingBox{}
	a.st.Fields = geo.FieldSet{}
	a.unsettle()
	a.st.ClearNotice(ControlArea)
}

// fit moves the map onto b without feeding the move back into the fields.
func (a *AreaSelector) fit(b geo.Bounds) {
	a.suppress = true
	a.view.FitBounds(b)
	a.suppress = false

	c := a.view.Center()
	a.st.Map = MapView{Seq: a.st.Map.Seq + 1, Center: [2]float64{c.Lon(), c.Lat()}, Zoom: a.view.Zoom()}
}

// check applies the size limit and starts the country lookup for boxes
// within it.
func (a *AreaSelector) check() {
	box := &a.st.Area.Box
	a.st.Area.Country = ""
	w, h := geo.EdgeLengthsKm(box.Bounds)
	box.ExceedsMaxSize = w > a.maxKm || h > a.maxKm
	if box.ExceedsMaxSize {
		a.unsettle()
		a.st.SetNotice(ControlArea, NoticeWarning, fmt.Sprintf(
			"The selected area is too big (%.1f × %.1f km). Each side must be at most %g km.", w, h, a.maxKm))
		return
	}
	a.st.ClearNotice(ControlArea)
	if a.settled != nil {
		a.settled(box.Bounds)
	}
}

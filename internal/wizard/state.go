// Package wizard implements the map creation wizard: step navigation, the
// area selection (administrative boundary or bounding box), the place
// autosuggest, the paper-size filter and the language preselection.
//
// All state of one user's wizard lives in a [Session]. Mutations are
// serialized by the session, which plays the role of the UI event loop;
// asynchronous lookups re-enter that loop when they complete.
package wizard

import (
	"github.com/joeblew999/plat-mapwizard/internal/geo"
)

// Step identifies one panel of the wizard.
type Step string

const (
	StepLocation   Step = "location"
	StepLayout     Step = "layout"
	StepStylesheet Step = "stylesheet"
	StepPaperSize  Step = "papersize"
	StepTitle      Step = "title"
	StepLanguage   Step = "language"
	StepSummary    Step = "summary"
)

// DefaultSteps is the panel sequence of the wizard.
var DefaultSteps = []Step{
	StepLocation, StepLayout, StepStylesheet, StepPaperSize, StepTitle, StepLanguage, StepSummary,
}

// Mode is the active area input mode.
type Mode string

const (
	ModeBoundary Mode = "admin"
	ModeBBox     Mode = "bbox"
)

// Orientation of the printed map.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Boundary is an area selected by administrative boundary.
type Boundary struct {
	OsmID       int64
	DisplayName string
	CountryCode string
}

// BoundingBox is an area selected by rectangle.
type BoundingBox struct {
	Bounds         geo.Bounds
	Set            bool
	Drawn          bool // an overlay rectangle is on the map
	ExceedsMaxSize bool
}

// AreaSelection is the area to render. Only the variant matching Mode is
// meaningful; switching modes clears the other one.
type AreaSelection struct {
	Mode     Mode
	Boundary Boundary
	Box      BoundingBox
	// Country is the inferred country code: from the selected boundary, or
	// from a reverse geocode of the box center. Empty when unknown.
	Country string
}

// Ready reports whether the selection identifies an area the wizard may
// proceed with.
func (a AreaSelection) Ready() bool {
	switch a.Mode {
	case ModeBoundary:
		return a.Boundary.OsmID != 0
	case ModeBBox:
		return a.Box.Set && a.Box.Bounds.Valid() && !a.Box.ExceedsMaxSize
	}
	return false
}

// RenderOptions are the rendering choices of the later steps.
type RenderOptions struct {
	Layout        string
	Stylesheet    string
	PaperSize     string
	PaperWidthMm  float64
	PaperHeightMm float64
	Orientation   Orientation
	Language      string
}

// MapView is a programmatic map move the browser widget must apply. Seq
// increases with every move so the widget can tell new moves from old ones.
type MapView struct {
	Seq    int
	Center [2]float64 // lon, lat
	Zoom   float64
}

// NoticeKind classifies inline notices.
type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeWarning NoticeKind = "warning"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a dismissable inline message shown near a control.
type Notice struct {
	Control string     `json:"control"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Controls notices attach to.
const (
	ControlArea       = "area"
	ControlSuggest    = "suggest"
	ControlReverseGeo = "reversegeo"
	ControlPaper      = "papersize"
)

// State is the complete wizard state of one session.
type State struct {
	Steps     []Step
	Cursor    int
	CanGoNext bool
	CanGoPrev bool

	Area    AreaSelection
	Fields  geo.FieldSet // the four bbox text fields as last written
	Visible geo.Bounds   // currently visible map area
	Map     MapView
	Title   string
	Options RenderOptions

	Suggest   SuggestList
	Paper     PaperList
	Languages []LanguageOption
	Summary   Summary

	Notices map[string]Notice
}

// NewState creates the initial state: cursor on the first step, boundary mode.
func NewState(steps []Step) *State {
	if len(steps) == 0 {
		steps = DefaultSteps
	}
	return &State{
		Steps:   append([]Step(nil), steps...),
		Area:    AreaSelection{Mode: ModeBoundary},
		Suggest: SuggestList{Highlight: -1},
		Notices: make(map[string]Notice),
	}
}

// Current returns the step under the cursor.
func (s *State) Current() Step {
	return s.Steps[s.Cursor]
}

// SetNotice shows a notice on a control, replacing any previous one.
func (s *State) SetNotice(control string, kind NoticeKind, msg string) {
	s.Notices[control] = Notice{Control: control, Kind: kind, Message: msg}
}

// ClearNotice removes the notice on a control.
func (s *State) ClearNotice(control string) {
	delete(s.Notices, control)
}

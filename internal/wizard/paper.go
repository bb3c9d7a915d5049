package wizard

import (
	"fmt"

	"github.com/joeblew999/plat-mapwizard/internal/backend"
)

// BestFit is the catalog name of the paper size computed from the area.
const BestFit = "Best fit"

// PaperStatus is the state of the allowed paper size fetch.
type PaperStatus string

const (
	PaperIdle    PaperStatus = ""
	PaperLoading PaperStatus = "loading"
	PaperReady   PaperStatus = "ready"
	PaperFailed  PaperStatus = "failed"
)

// PaperOption is a visible entry of the paper size list.
type PaperOption struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	WidthMm   float64 `json:"widthMm"`
	HeightMm  float64 `json:"heightMm"`
	Portrait  bool    `json:"portrait"`
	Landscape bool    `json:"landscape"`
	Default   bool    `json:"default"`
}

// PaperList is the paper size step: the entries allowed for the current area
// and the enablement of the orientation radios.
type PaperList struct {
	Status           PaperStatus
	Options          []PaperOption
	PortraitEnabled  bool
	LandscapeEnabled bool
}

// Find returns the visible entry with the given name.
func (l PaperList) Find(name string) (PaperOption, bool) {
	for _, o := range l.Options {
		if o.Name == name {
			return o, true
		}
	}
	return PaperOption{}, false
}

// FilterPapers keeps the catalog entries the server returned a definition
// for, in catalog order.
func FilterPapers(catalog []string, allowed []backend.PaperSize) []PaperOption {
	byName := make(map[string]backend.PaperSize, len(allowed))
	for _, p := range allowed {
		byName[p.Name] = p
	}
	var out []PaperOption
	for _, name := range catalog {
		p, ok := byName[name]
		if !ok {
			continue
		}
		label := p.Name
		if p.Name == BestFit {
			label = fmt.Sprintf("%s (%.1f × %.1f cm²)", p.Name, p.WidthMm/10, p.HeightMm/10)
		}
		out = append(out, PaperOption{
			Name:      p.Name,
			Label:     label,
			WidthMm:   p.WidthMm,
			HeightMm:  p.HeightMm,
			Portrait:  p.Portrait,
			Landscape: p.Landscape,
			Default:   p.Default,
		})
	}
	return out
}

// PaperFilter owns the paper size and orientation choices.
type PaperFilter struct {
	st      *State
	catalog []string
}

// Begin hides the list while the allowed sizes are fetched.
func (f *PaperFilter) Begin() {
	f.st.Paper = PaperList{Status: PaperLoading}
	f.st.Options.PaperSize = ""
	f.st.ClearNotice(ControlPaper)
}

// Apply shows the allowed entries and selects the default one: the entry
// flagged default, else the first visible entry.
func (f *PaperFilter) Apply(allowed []backend.PaperSize) {
	f.st.Paper = PaperList{Status: PaperReady, Options: FilterPapers(f.catalog, allowed)}
	if len(f.st.Paper.Options) == 0 {
		f.st.SetNotice(ControlPaper, NoticeInfo, "No paper size is available for this area and layout.")
		return
	}
	seed := f.st.Paper.Options[0]
	for _, o := range f.st.Paper.Options {
		if o.Default {
			seed = o
			break
		}
	}
	f.Select(seed.Name)
}

// Fail leaves the list hidden and the step blocked.
func (f *PaperFilter) Fail(err error) {
	f.st.Paper = PaperList{Status: PaperFailed}
	f.st.SetNotice(ControlPaper, NoticeError, fmt.Sprintf("Could not compute the allowed paper sizes: %v", err))
}

// Select picks a paper size from the allowed list and sets the orientation
// radios: a single permitted orientation is forced, otherwise landscape is
// checked.
func (f *PaperFilter) Select(name string) error {
	if f.st.Paper.Status != PaperReady {
		return ErrNotAllowed
	}
	o, ok := f.st.Paper.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPaper, name)
	}
	f.st.Options.PaperSize = o.Name
	f.st.Options.PaperWidthMm = o.WidthMm
	f.st.Options.PaperHeightMm = o.HeightMm
	f.st.Paper.PortraitEnabled = o.Portrait
	f.st.Paper.LandscapeEnabled = o.Landscape
	switch {
	case o.Landscape:
		f.st.Options.Orientation = Landscape
	case o.Portrait:
		f.st.Options.Orientation = Portrait
	default:
		f.st.Options.Orientation = ""
	}
	return nil
}

// SetOrientation checks one of the permitted orientations.
func (f *PaperFilter) SetOrientation(o Orientation) error {
	if f.st.Options.PaperSize == "" {
		return ErrNotAllowed
	}
	switch {
	case o == Portrait && f.st.Paper.PortraitEnabled,
		o == Landscape && f.st.Paper.LandscapeEnabled:
		f.st.Options.Orientation = o
		return nil
	}
	return fmt.Errorf("%w: %q", ErrOrientation, o)
}

// Query builds the sizing request for the current selection.
func (f *PaperFilter) Query() backend.PaperQuery {
	q := backend.PaperQuery{Layout: f.st.Options.Layout, Stylesheet: f.st.Options.Stylesheet}
	if f.st.Area.Mode == ModeBoundary {
		q.OsmID = f.st.Area.Boundary.OsmID
	} else {
		q.Bounds = f.st.Area.Box.Bounds
	}
	return q
}

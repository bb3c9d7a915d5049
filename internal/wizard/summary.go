package wizard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/joeblew999/plat-mapwizard/internal/config"
)

// OSMRelationURL is the address of a boundary relation on openstreetmap.org.
const OSMRelationURL = "https://www.openstreetmap.org/relation/"

// Summary is the recap shown on the last step.
type Summary struct {
	Location    string `json:"location"`
	RelationURL string `json:"relationUrl,omitempty"`
	Title       string `json:"title"`
	Layout      string `json:"layout"`
	Stylesheet  string `json:"stylesheet"`
	Paper       string `json:"paper"`
	Language    string `json:"language"`
}

// BuildSummary describes the choices made so far.
func BuildSummary(st *State, cfg config.Config, languageName func(string) string) Summary {
	sum := Summary{
		Title:      st.Title,
		Layout:     st.Options.Layout,
		Stylesheet: st.Options.Stylesheet,
		Language:   languageName(st.Options.Language),
	}
	if st.Area.Mode == ModeBoundary {
		sum.Location = st.Area.Boundary.DisplayName
		if id := st.Area.Boundary.OsmID; id != 0 {
			if id < 0 {
				id = -id
			}
			sum.RelationURL = OSMRelationURL + strconv.FormatInt(id, 10)
		}
	} else {
		sum.Location = st.Area.Box.Bounds.String()
	}
	if c, ok := cfg.Layout(st.Options.Layout); ok {
		sum.Layout = c.Description
	}
	if c, ok := cfg.Stylesheet(st.Options.Stylesheet); ok {
		sum.Stylesheet = c.Description
	}
	if st.Options.PaperSize != "" {
		sum.Paper = st.Options.PaperSize
		if o := st.Options.Orientation; o != "" {
			sum.Paper = fmt.Sprintf("%s%s, %s", strings.ToUpper(string(o[:1])), o[1:], st.Options.PaperSize)
		}
	}
	return sum
}

// FormValues returns the fields of the final map request form.
func (s *Session) FormValues() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.st
	v := url.Values{}
	v.Set("mode", string(st.Area.Mode))
	switch st.Area.Mode {
	case ModeBoundary:
		v.Set("administrative_city", st.Area.Boundary.DisplayName)
		v.Set("administrative_osmid", strconv.FormatInt(st.Area.Boundary.OsmID, 10))
	case ModeBBox:
		f := st.Area.Box.Bounds.Fields()
		v.Set(FieldLatUpperLeft, f.LatUpperLeft)
		v.Set(FieldLonUpperLeft, f.LonUpperLeft)
		v.Set(FieldLatBottomRight, f.LatBottomRight)
		v.Set(FieldLonBottomRight, f.LonBottomRight)
	}
	v.Set("maptitle", st.Title)
	v.Set("layout", st.Options.Layout)
	v.Set("stylesheet", st.Options.Stylesheet)
	v.Set("papersize", st.Options.PaperSize)
	v.Set("paper_width_mm", strconv.FormatFloat(st.Options.PaperWidthMm, 'f', -1, 64))
	v.Set("paper_height_mm", strconv.FormatFloat(st.Options.PaperHeightMm, 'f', -1, 64))
	v.Set("orientation", string(st.Options.Orientation))
	v.Set("map_language", st.Options.Language)
	return v
}

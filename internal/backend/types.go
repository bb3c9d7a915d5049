package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joeblew999/plat-mapwizard/internal/geo"
)

// Flag decodes the loosely typed booleans the endpoints emit: true/false,
// 0/1, or strings where "" and "0" are false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(x)
	case float64:
		*f = x != 0
	case string:
		*f = x != "" && x != "0" && x != "false" && x != "False"
	default:
		return fmt.Errorf("flag: unexpected %s", data)
	}
	return nil
}

// Text decodes a value that may arrive as a string or a bare number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = Text(x)
	case float64:
		*t = Text(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(x))
	default:
		return fmt.Errorf("text: unexpected %s", data)
	}
	return nil
}

// ID decodes an integer that may arrive quoted.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	var t Text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	if t == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(t), 10, 64)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n)
	return nil
}

// PlaceParams is the renderer-specific enrichment of a place.
type PlaceParams struct {
	ID         ID     `json:"id"`
	Valid      Flag   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
	ReasonText string `json:"reason_text,omitempty"`
	AdminLevel Text   `json:"admin_level,omitempty"`
}

// Place is one entry of a place-name search.
type Place struct {
	DisplayName string       `json:"display_name"`
	CountryCode string       `json:"country_code"`
	Icon        string       `json:"icon,omitempty"`
	Params      *PlaceParams `json:"ocitysmap_params,omitempty"`
}

// Usable reports whether the place can be selected as a map area.
func (p Place) Usable() bool {
	return p.Params != nil && bool(p.Params.Valid) && p.Params.ID != 0
}

// OsmID returns the boundary id, or 0 when none is known.
func (p Place) OsmID() int64 {
	if p.Params == nil {
		return 0
	}
	return int64(p.Params.ID)
}

// Reason returns the human readable explanation for an unusable place.
func (p Place) Reason() string {
	if p.Params == nil {
		return ""
	}
	return p.Params.ReasonText
}

// SearchResult is one page of place-name suggestions.
type SearchResult struct {
	Entries      []Place `json:"entries"`
	HasPrev      Flag    `json:"hasprev"`
	PrevExcludes Text    `json:"prevexcludes"`
	HasNext      Flag    `json:"hasnext"`
	NextExcludes Text    `json:"nextexcludes"`
}

// PaperSize is one allowed paper definition. On the wire it is the tuple
// [name, widthMm, heightMm, portraitAllowed, landscapeAllowed, isDefault].
type PaperSize struct {
	Name      string  `json:"name"`
	WidthMm   float64 `json:"widthMm"`
	HeightMm  float64 `json:"heightMm"`
	Portrait  bool    `json:"portrait"`
	Landscape bool    `json:"landscape"`
	Default   bool    `json:"default"`
}

func (p *PaperSize) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("paper size: %w", err)
	}
	if len(tuple) < 5 {
		return fmt.Errorf("paper size: want at least 5 fields, got %d", len(tuple))
	}
	var name Text
	if err := json.Unmarshal(tuple[0], &name); err != nil {
		return fmt.Errorf("paper size name: %w", err)
	}
	var w, h *float64
	if err := json.Unmarshal(tuple[1], &w); err != nil {
		return fmt.Errorf("paper size width: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &h); err != nil {
		return fmt.Errorf("paper size height: %w", err)
	}
	var portrait, landscape, def Flag
	if err := json.Unmarshal(tuple[3], &portrait); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[4], &landscape); err != nil {
		return err
	}
	if len(tuple) > 5 {
		if err := json.Unmarshal(tuple[5], &def); err != nil {
			return err
		}
	}
	*p = PaperSize{
		Name:      string(name),
		Portrait:  bool(portrait),
		Landscape: bool(landscape),
		Default:   bool(def),
	}
	if w != nil {
		p.WidthMm = *w
	}
	if h != nil {
		p.HeightMm = *h
	}
	return nil
}

func (p PaperSize) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Name, p.WidthMm, p.HeightMm, p.Portrait, p.Landscape, p.Default})
}

// PaperQuery selects the area and rendering options the allowed paper sizes
// are computed for. Exactly one of OsmID or Bounds is used.
type PaperQuery struct {
	OsmID      int64
	Bounds     geo.Bounds
	Layout     string
	Stylesheet string
}

// Package geo is the coordinate bridge between the slippy map widget and the
// wizard form fields.
//
// The map widget works in spherical Mercator (EPSG:3857, meters) while the
// form fields hold WGS84 degrees (EPSG:4326). Conversion goes through
// paulmach/orb so the projection math matches what the tiles use.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/project"
)

// FieldPrecision is the number of decimals written to the bbox text fields.
const FieldPrecision = 4

// ErrInvalidBounds is returned when field values do not describe a usable box.
var ErrInvalidBounds = errors.New("invalid bounding box")

// Bounds is a rectangle in display projection (degrees).
type Bounds struct {
	LatTop    float64 `json:"latTop" doc:"Latitude of the upper edge"`
	LonLeft   float64 `json:"lonLeft" doc:"Longitude of the left edge"`
	LatBottom float64 `json:"latBottom" doc:"Latitude of the bottom edge"`
	LonRight  float64 `json:"lonRight" doc:"Longitude of the right edge"`
}

// FromOrb converts an orb bound holding lon/lat points.
func FromOrb(b orb.Bound) Bounds {
	return Bounds{
		LatTop:    b.Max.Lat(),
		LonLeft:   b.Min.Lon(),
		LatBottom: b.Min.Lat(),
		LonRight:  b.Max.Lon(),
	}
}

// Orb returns the bounds as an orb.Bound of lon/lat points.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Min(b.LonLeft, b.LonRight), math.Min(b.LatTop, b.LatBottom)},
		Max: orb.Point{math.Max(b.LonLeft, b.LonRight), math.Max(b.LatTop, b.LatBottom)},
	}
}

// Normalize orders the edges so top >= bottom and right >= left.
func (b Bounds) Normalize() Bounds {
	return FromOrb(b.Orb())
}

// Center returns the center point of the box.
func (b Bounds) Center() orb.Point {
	return b.Orb().Center()
}

// IsZero reports whether the bounds are unset.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Valid reports whether the box is finite, inside the WGS84 domain and has a
// non-zero extent on both axes.
func (b Bounds) Valid() bool {
	for _, v := range []float64{b.LatTop, b.LonLeft, b.LatBottom, b.LonRight} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if math.Abs(b.LatTop) > 90 || math.Abs(b.LatBottom) > 90 {
		return false
	}
	if math.Abs(b.LonLeft) > 180 || math.Abs(b.LonRight) > 180 {
		return false
	}
	return b.LatTop != b.LatBottom && b.LonLeft != b.LonRight
}

// Round returns the bounds rounded to the field precision.
func (b Bounds) Round() Bounds {
	return Bounds{
		LatTop:    round(b.LatTop),
		LonLeft:   round(b.LonLeft),
		LatBottom: round(b.LatBottom),
		LonRight:  round(b.LonRight),
	}
}

func (b Bounds) String() string {
	f := b.Fields()
	return fmt.Sprintf("(%s, %s) → (%s, %s)", f.LatUpperLeft, f.LonUpperLeft, f.LatBottomRight, f.LonBottomRight)
}

// EdgeLengthsKm returns the great-circle length of the top edge and of the
// right edge, in kilometers. A box spanning more than 180° of longitude is
// measured along its widest parallel instead, since the great circle would
// take the short way round.
func EdgeLengthsKm(b Bounds) (width, height float64) {
	upperLeft := orb.Point{b.LonLeft, b.LatTop}
	upperRight := orb.Point{b.LonRight, b.LatTop}
	bottomRight := orb.Point{b.LonRight, b.LatBottom}
	width = geo.DistanceHaversine(upperLeft, upperRight) / 1000
	height = geo.DistanceHaversine(upperRight, bottomRight) / 1000
	if span := math.Abs(b.LonRight - b.LonLeft); span > 180 {
		lat := math.Min(math.Abs(b.LatTop), math.Abs(b.LatBottom))
		width = deg2rad(span) * math.Cos(deg2rad(lat)) * orb.EarthRadius / 1000
	}
	return width, height
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

// ExceedsKm reports whether either edge of b is longer than maxKm.
func ExceedsKm(b Bounds, maxKm float64) bool {
	w, h := EdgeLengthsKm(b)
	return w > maxKm || h > maxKm
}

// ToMercator projects a lon/lat point into the map widget projection.
func ToMercator(p orb.Point) orb.Point {
	return project.WGS84.ToMercator(p)
}

// ToWGS84 projects a map widget point back into lon/lat.
func ToWGS84(p orb.Point) orb.Point {
	return project.Mercator.ToWGS84(p)
}

// MercatorBound projects b into the map widget projection.
func MercatorBound(b Bounds) orb.Bound {
	ob := b.Orb()
	return orb.Bound{Min: ToMercator(ob.Min), Max: ToMercator(ob.Max)}
}

// FromMercator converts a map widget bound back into display bounds.
func FromMercator(mb orb.Bound) Bounds {
	return FromOrb(orb.Bound{Min: ToWGS84(mb.Min), Max: ToWGS84(mb.Max)})
}

// FieldSet is the textual content of the four bbox corner fields.
type FieldSet struct {
	LatUpperLeft   string `json:"latUpperLeft"`
	LonUpperLeft   string `json:"lonUpperLeft"`
	LatBottomRight string `json:"latBottomRight"`
	LonBottomRight string `json:"lonBottomRight"`
}

// Fields formats the bounds the way the text fields display them.
func (b Bounds) Fields() FieldSet {
	return FieldSet{
		LatUpperLeft:   formatCoord(b.LatTop),
		LonUpperLeft:   formatCoord(b.LonLeft),
		LatBottomRight: formatCoord(b.LatBottom),
		LonBottomRight: formatCoord(b.LonRight),
	}
}

// Empty reports whether any of the four fields is blank.
func (f FieldSet) Empty() bool {
	return strings.TrimSpace(f.LatUpperLeft) == "" || strings.TrimSpace(f.LonUpperLeft) == "" ||
		strings.TrimSpace(f.LatBottomRight) == "" || strings.TrimSpace(f.LonBottomRight) == ""
}

// ParseFields reads the four text fields into bounds.
func ParseFields(f FieldSet) (Bounds, error) {
	if f.Empty() {
		return Bounds{}, fmt.Errorf("%w: missing coordinate", ErrInvalidBounds)
	}
	var vals [4]float64
	for i, s := range []string{f.LatUpperLeft, f.LonUpperLeft, f.LatBottomRight, f.LonBottomRight} {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: %q", ErrInvalidBounds, s)
		}
		vals[i] = v
	}
	b := Bounds{LatTop: vals[0], LonLeft: vals[1], LatBottom: vals[2], LonRight: vals[3]}
	if !b.Valid() {
		return Bounds{}, fmt.Errorf("%w: %s", ErrInvalidBounds, b)
	}
	return b, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(round(v), 'f', FieldPrecision, 64)
}

func round(v float64) float64 {
	p := math.Pow10(FieldPrecision)
	return math.Round(v*p) / p
}

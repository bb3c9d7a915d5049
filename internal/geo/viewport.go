package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// TileSize is the pixel size of one slippy map tile.
	TileSize = 256
	// MaxZoom is the deepest zoom level the map widget offers.
	MaxZoom = 18

	earthRadius = 6378137.0
)

// worldWidth is the circumference covered by zoom level 0, in Mercator meters.
var worldWidth = 2 * math.Pi * earthRadius

// PixelRect is a screen-space rectangle relative to the map's top-left corner.
type PixelRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// MoveFunc is called after every viewport change.
type MoveFunc func(extent Bounds)

// Viewport mirrors the state of the slippy map widget: center, zoom and pixel
// size. All math happens in Mercator meters.
type Viewport struct {
	center  orb.Point // Mercator
	zoom    float64
	width   float64
	height  float64
	onMoved []MoveFunc
}

// NewViewport creates a viewport of the given pixel size showing the whole world.
func NewViewport(width, height int) *Viewport {
	if width <= 0 {
		width = TileSize
	}
	if height <= 0 {
		height = TileSize
	}
	return &Viewport{width: float64(width), height: float64(height)}
}

// OnMove registers a listener fired synchronously after each move or zoom.
func (v *Viewport) OnMove(fn MoveFunc) {
	v.onMoved = append(v.onMoved, fn)
}

// Resize changes the pixel size without moving the center.
func (v *Viewport) Resize(width, height int) {
	if width > 0 {
		v.width = float64(width)
	}
	if height > 0 {
		v.height = float64(height)
	}
}

// Zoom returns the current zoom level.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Center returns the current center in lon/lat.
func (v *Viewport) Center() orb.Point { return ToWGS84(v.center) }

// Resolution returns Mercator meters per pixel at the current zoom.
func (v *Viewport) Resolution() float64 {
	return worldWidth / (TileSize * math.Pow(2, v.zoom))
}

// Extent returns the visible area in display projection.
func (v *Viewport) Extent() Bounds {
	res := v.Resolution()
	halfW, halfH := v.width/2*res, v.height/2*res
	return FromMercator(orb.Bound{
		Min: orb.Point{v.center[0] - halfW, v.center[1] - halfH},
		Max: orb.Point{v.center[0] + halfW, v.center[1] + halfH},
	})
}

// PixelToLonLat converts a screen position into lon/lat.
func (v *Viewport) PixelToLonLat(x, y float64) orb.Point {
	res := v.Resolution()
	return ToWGS84(orb.Point{
		v.center[0] + (x-v.width/2)*res,
		v.center[1] - (y-v.height/2)*res,
	})
}

// PixelRect converts a screen rectangle into display bounds. The second
// result is false when both corners map to the same position.
func (v *Viewport) PixelRect(r PixelRect) (Bounds, bool) {
	tl := v.PixelToLonLat(r.Left, r.Top)
	br := v.PixelToLonLat(r.Right, r.Bottom)
	if tl.Equal(br) {
		return Bounds{}, false
	}
	return FromOrb(orb.Bound{Min: tl, Max: tl}.Extend(br)), true
}

// FitBounds centers the map on b and picks the deepest integer zoom that still
// shows all of it.
func (v *Viewport) FitBounds(b Bounds) {
	mb := MercatorBound(b)
	spanX := mb.Max[0] - mb.Min[0]
	spanY := mb.Max[1] - mb.Min[1]

	zoom := float64(MaxZoom)
	if spanX > 0 {
		zoom = math.Min(zoom, math.Log2(worldWidth*v.width/(TileSize*spanX)))
	}
	if spanY > 0 {
		zoom = math.Min(zoom, math.Log2(worldWidth*v.height/(TileSize*spanY)))
	}
	v.center = mb.Center()
	v.zoom = clampZoom(math.Floor(zoom))
	v.moved()
}

// SetExtent syncs the mirror with an extent reported by the browser widget.
// The zoom is derived from the horizontal span and left fractional.
func (v *Viewport) SetExtent(b Bounds) {
	mb := MercatorBound(b)
	spanX := mb.Max[0] - mb.Min[0]
	if spanX > 0 {
		v.zoom = clampZoom(math.Log2(worldWidth * v.width / (TileSize * spanX)))
	}
	v.center = mb.Center()
	v.moved()
}

func (v *Viewport) moved() {
	ext := v.Extent()
	for _, fn := range v.onMoved {
		fn(ext)
	}
}

func clampZoom(z float64) float64 {
	if math.IsNaN(z) || z < 0 {
		return 0
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

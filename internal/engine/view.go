package engine

import (
	"math"

	"ottermap/pkg/geometry"
)

const (
	// EarthRadius is the WGS84 semi-major axis used by spherical mercator.
	EarthRadius = 6378137.0
	// TileSize is the pixel size of one map tile.
	TileSize = 256

	MinZoom = 0.0
	MaxZoom = 28.0
)

// WorldSize is the width of the mercator world in map units.
var WorldSize = 2 * math.Pi * EarthRadius

// View maps between map coordinates and pixels for a viewport. Map Y grows
// north, pixel Y grows down.
type View struct {
	Center geometry.Point2D
	Zoom   float64
	Width  int
	Height int
}

// NewView creates a view with a clamped zoom and a placeholder viewport size.
func NewView(center geometry.Point2D, zoom float64) *View {
	v := &View{Center: center, Width: TileSize, Height: TileSize}
	v.SetZoom(zoom)
	return v
}

// SetZoom sets the zoom level, clamped to [MinZoom, MaxZoom].
func (v *View) SetZoom(zoom float64) {
	v.Zoom = math.Max(MinZoom, math.Min(MaxZoom, zoom))
}

// SetSize sets the viewport size in pixels.
func (v *View) SetSize(width, height int) {
	v.Width = width
	v.Height = height
}

// Resolution returns the size of one pixel in map units.
func (v *View) Resolution() float64 {
	return WorldSize / (TileSize * math.Pow(2, v.Zoom))
}

// transform returns the map-to-pixel transform.
func (v *View) transform() geometry.AffineTransform {
	res := v.Resolution()
	return geometry.Translation(float64(v.Width)/2, float64(v.Height)/2).
		Compose(geometry.Scale(1/res, -1/res)).
		Compose(geometry.Translation(-v.Center.X, -v.Center.Y))
}

// ToPixel converts a map coordinate to a pixel position.
func (v *View) ToPixel(p geometry.Point2D) geometry.Point2D {
	return v.transform().Apply(p)
}

// ToMap converts a pixel position to a map coordinate.
func (v *View) ToMap(px geometry.Point2D) geometry.Point2D {
	inv, ok := v.transform().Inverse()
	if !ok {
		return v.Center
	}
	return inv.Apply(px)
}

// Extent returns the map-space rectangle covered by the viewport.
func (v *View) Extent() geometry.Rect {
	res := v.Resolution()
	w := float64(v.Width) * res
	h := float64(v.Height) * res
	return geometry.NewRect(v.Center.X-w/2, v.Center.Y-h/2, w, h)
}

// Pan moves the view by a pixel delta, as when dragging the map.
func (v *View) Pan(dx, dy float64) {
	res := v.Resolution()
	v.Center.X -= dx * res
	v.Center.Y += dy * res
}

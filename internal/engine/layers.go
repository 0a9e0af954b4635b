package engine

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"ottermap/internal/features"
	"ottermap/pkg/geometry"
)

// baseLayer paints the read-only background: a flat color with the tile
// grid of the current zoom level and z/x/y labels.
type baseLayer struct {
	engine *Software
}

func (l *baseLayer) Kind() Kind { return KindBaseLayer }

func (l *baseLayer) Render(dst *image.RGBA, view *View) {
	style := l.engine.Style()
	draw.Draw(dst, dst.Bounds(), image.NewUniform(style.Background), image.Point{}, draw.Src)

	z := math.Floor(view.Zoom)
	tiles := math.Pow(2, z)
	tileSpan := WorldSize / tiles
	half := WorldSize / 2

	ext := view.Extent()
	minCol := math.Max(0, math.Floor((ext.X+half)/tileSpan))
	maxCol := math.Min(tiles-1, math.Floor((ext.X+ext.Width+half)/tileSpan))
	minRow := math.Max(0, math.Floor((half-(ext.Y+ext.Height))/tileSpan))
	maxRow := math.Min(tiles-1, math.Floor((half-ext.Y)/tileSpan))

	for col := minCol; col <= maxCol; col++ {
		for row := minRow; row <= maxRow; row++ {
			topLeft := view.ToPixel(geometry.Point2D{X: -half + col*tileSpan, Y: half - row*tileSpan})
			bottomRight := view.ToPixel(geometry.Point2D{X: -half + (col+1)*tileSpan, Y: half - (row+1)*tileSpan})
			corners := []geometry.Point2D{
				topLeft,
				{X: bottomRight.X, Y: topLeft.Y},
				bottomRight,
				{X: topLeft.X, Y: bottomRight.Y},
			}
			strokePolyline(dst, corners, style.Grid, 1, true)
			label := fmt.Sprintf("%d/%d/%d", int(z), int(col), int(row))
			drawLabel(dst, label, int(topLeft.X)+4, int(topLeft.Y)+4, style.Label, 2)
		}
	}
}

// vectorLayer paints the polygons of a feature store.
type vectorLayer struct {
	engine *Software
	store  *features.Store
}

func (l *vectorLayer) Kind() Kind { return KindVectorLayer }

func (l *vectorLayer) Render(dst *image.RGBA, view *View) {
	style := l.engine.Style()
	ext := view.Extent()
	for p := range l.store.All() {
		if !ext.Intersects(p.Bounds()) {
			continue
		}
		pixels := toPixels(view, p.Vertices())
		fillPolygon(dst, pixels, style.Fill)
		strokePolyline(dst, pixels, style.Stroke, style.StrokeWidth, true)
	}
}

// FeatureAt returns the topmost polygon containing coord.
func (l *vectorLayer) FeatureAt(coord geometry.Point2D) (*features.Polygon, bool) {
	return l.store.HitTest(coord)
}

func toPixels(view *View, points []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(points))
	for i, p := range points {
		out[i] = view.ToPixel(p)
	}
	return out
}

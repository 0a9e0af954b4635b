package engine

import (
	"image"

	"ottermap/internal/features"
	"ottermap/pkg/geometry"
)

// drawInteraction builds a polygon from clicks. A click within the snap
// tolerance of the first vertex, or a double click, finishes the sketch and
// commits it to the store as one polygon. Sketches with fewer than three
// distinct vertices are discarded.
type drawInteraction struct {
	engine *Software
	store  *features.Store

	sketch []geometry.Point2D
	cursor *geometry.Point2D
}

func (d *drawInteraction) Kind() Kind { return KindDraw }

func (d *drawInteraction) HandleEvent(ev PointerEvent) bool {
	switch ev.Type {
	case PointerMove:
		c := ev.Coord
		d.cursor = &c
		return len(d.sketch) > 0
	case PointerClick:
		if d.closesRing(ev) {
			d.finish()
			return true
		}
		d.sketch = append(d.sketch, ev.Coord)
		return true
	case PointerDoubleClick:
		if !d.closesRing(ev) && (len(d.sketch) == 0 || d.sketch[len(d.sketch)-1] != ev.Coord) {
			d.sketch = append(d.sketch, ev.Coord)
		}
		d.finish()
		return true
	}
	return false
}

// closesRing reports whether the click lands on the first sketch vertex of a
// sketch that already has enough vertices.
func (d *drawInteraction) closesRing(ev PointerEvent) bool {
	if len(d.sketch) < features.MinVertices {
		return false
	}
	return d.sketch[0].Distance(ev.Coord) <= ev.Tolerance(d.engine.SnapTolerance())
}

func (d *drawInteraction) finish() {
	vertices := d.sketch
	d.Abort()

	p, err := features.NewPolygon(vertices)
	if err != nil {
		d.engine.logger.Debug("draw: sketch discarded", "vertices", len(vertices), "error", err)
		return
	}
	if err := d.store.Add(p); err != nil {
		d.engine.logger.Warn("draw: commit failed", "id", p.ID, "error", err)
		return
	}
	d.engine.logger.Debug("draw: polygon committed", "id", p.ID, "vertices", p.VertexCount())
}

// Abort discards the sketch.
func (d *drawInteraction) Abort() {
	d.sketch = nil
	d.cursor = nil
}

// Sketch returns a copy of the unfinished vertices.
func (d *drawInteraction) Sketch() []geometry.Point2D {
	out := make([]geometry.Point2D, len(d.sketch))
	copy(out, d.sketch)
	return out
}

func (d *drawInteraction) RenderSketch(dst *image.RGBA, view *View) {
	if len(d.sketch) == 0 {
		return
	}
	style := d.engine.Style()
	points := d.sketch
	if d.cursor != nil {
		points = append(append([]geometry.Point2D{}, d.sketch...), *d.cursor)
	}
	pixels := toPixels(view, points)
	strokePolyline(dst, pixels, style.Sketch, style.StrokeWidth, false)
	for _, p := range pixels[:len(d.sketch)] {
		drawHandle(dst, p, style.Sketch, style.VertexRadius)
	}
}

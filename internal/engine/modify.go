package engine

import (
	"image"

	"ottermap/internal/features"
)

// modifyInteraction drags polygon vertices. Pressing near a vertex grabs it;
// pressing near an edge inserts a vertex there and grabs the new one. Moves
// that would make a polygon degenerate are ignored.
type modifyInteraction struct {
	engine *Software
	store  *features.Store

	dragging bool
	target   features.VertexRef
}

func (m *modifyInteraction) Kind() Kind { return KindModify }

func (m *modifyInteraction) HandleEvent(ev PointerEvent) bool {
	switch ev.Type {
	case PointerDown:
		return m.grab(ev)
	case PointerMove:
		if !m.dragging {
			return false
		}
		if err := m.store.MoveVertex(m.target.ID, m.target.Index, ev.Coord); err != nil {
			m.engine.logger.Debug("modify: move rejected", "id", m.target.ID, "index", m.target.Index, "error", err)
		}
		return true
	case PointerUp:
		if !m.dragging {
			return false
		}
		m.Abort()
		return true
	}
	return false
}

func (m *modifyInteraction) grab(ev PointerEvent) bool {
	tolerance := ev.Tolerance(m.engine.SnapTolerance())
	if ref, ok := m.store.NearestVertex(ev.Coord, tolerance); ok {
		m.dragging = true
		m.target = ref
		return true
	}
	if edge, ok := m.store.NearestEdge(ev.Coord, tolerance); ok {
		idx, err := m.store.InsertVertex(edge.ID, edge.After, edge.Point)
		if err != nil {
			m.engine.logger.Debug("modify: insert rejected", "id", edge.ID, "error", err)
			return false
		}
		m.dragging = true
		m.target = features.VertexRef{ID: edge.ID, Index: idx}
		return true
	}
	return false
}

// Abort ends any drag in progress. Moves already applied stay applied.
func (m *modifyInteraction) Abort() {
	m.dragging = false
	m.target = features.VertexRef{}
}

// RenderSketch draws vertex handles on every visible polygon.
func (m *modifyInteraction) RenderSketch(dst *image.RGBA, view *View) {
	style := m.engine.Style()
	ext := view.Extent()
	for p := range m.store.All() {
		if !ext.Intersects(p.Bounds()) {
			continue
		}
		for _, px := range toPixels(view, p.Vertices()) {
			drawHandle(dst, px, style.Stroke, style.VertexRadius)
		}
	}
}

// Package canvas provides the interactive map widget.
package canvas

import (
	"image"
	"sync"

	"ottermap/internal/engine"
	"ottermap/internal/surface"
	"ottermap/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	wheelZoomStep = 0.5
	keyZoomStep   = 1.0
)

// MapCanvas displays a map surface and forwards pointer input to it. Drags
// that no interaction claims pan the map; the wheel zooms around the
// pointer; Escape discards an unfinished sketch.
type MapCanvas struct {
	widget.BaseWidget

	surface *surface.Surface
	raster  *fynecanvas.Raster

	mu sync.Mutex
	// scale is raster pixels per fyne unit, learned from the last render.
	scale float32

	// grabbed is set when the interaction under the pointer consumed the
	// press, so the following drag edits instead of panning.
	grabbed bool
	last    fyne.Position

	onPointer func(coord geometry.Point2D)
}

var (
	_ fyne.Tappable       = (*MapCanvas)(nil)
	_ fyne.DoubleTappable = (*MapCanvas)(nil)
	_ fyne.Draggable      = (*MapCanvas)(nil)
	_ fyne.Scrollable     = (*MapCanvas)(nil)
	_ fyne.Focusable      = (*MapCanvas)(nil)
	_ desktop.Mouseable   = (*MapCanvas)(nil)
	_ desktop.Hoverable   = (*MapCanvas)(nil)
)

// NewMapCanvas creates a widget showing s.
func NewMapCanvas(s *surface.Surface) *MapCanvas {
	m := &MapCanvas{surface: s, scale: 1}
	m.raster = fynecanvas.NewRaster(m.render)
	m.ExtendBaseWidget(m)
	s.OnInvalidate(func() { m.raster.Refresh() })
	return m
}

// OnPointer sets a callback receiving the map coordinate under the pointer.
func (m *MapCanvas) OnPointer(fn func(coord geometry.Point2D)) {
	m.mu.Lock()
	m.onPointer = fn
	m.mu.Unlock()
}

func (m *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(m.raster)
}

func (m *MapCanvas) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

// Resize keeps the surface viewport in step with the widget.
func (m *MapCanvas) Resize(size fyne.Size) {
	m.BaseWidget.Resize(size)
	scale := m.pixelScale()
	m.surface.Resize(int(size.Width*scale), int(size.Height*scale))
}

func (m *MapCanvas) render(w, h int) image.Image {
	if size := m.Size(); size.Width > 0 {
		m.mu.Lock()
		m.scale = float32(w) / size.Width
		m.mu.Unlock()
	}
	return m.surface.Render(w, h)
}

func (m *MapCanvas) pixelScale() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scale
}

func (m *MapCanvas) toPixel(pos fyne.Position) geometry.Point2D {
	scale := m.pixelScale()
	return geometry.Point2D{X: float64(pos.X * scale), Y: float64(pos.Y * scale)}
}

func (m *MapCanvas) dispatch(typ engine.PointerType, pos fyne.Position) bool {
	return m.surface.Dispatch(typ, m.toPixel(pos))
}

func (m *MapCanvas) Tapped(ev *fyne.PointEvent) {
	m.requestFocus()
	m.dispatch(engine.PointerClick, ev.Position)
}

func (m *MapCanvas) DoubleTapped(ev *fyne.PointEvent) {
	m.dispatch(engine.PointerDoubleClick, ev.Position)
}

func (m *MapCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	grabbed := m.dispatch(engine.PointerDown, ev.Position)
	m.mu.Lock()
	m.grabbed = grabbed
	m.mu.Unlock()
}

func (m *MapCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	m.release(ev.Position)
}

func (m *MapCanvas) Dragged(ev *fyne.DragEvent) {
	m.mu.Lock()
	grabbed := m.grabbed
	m.last = ev.Position
	m.mu.Unlock()

	if grabbed {
		m.dispatch(engine.PointerMove, ev.Position)
		return
	}
	scale := m.pixelScale()
	m.surface.Pan(float64(ev.Dragged.DX*scale), float64(ev.Dragged.DY*scale))
}

func (m *MapCanvas) DragEnd() {
	m.mu.Lock()
	last := m.last
	m.mu.Unlock()
	m.release(last)
}

func (m *MapCanvas) release(pos fyne.Position) {
	m.mu.Lock()
	grabbed := m.grabbed
	m.grabbed = false
	m.mu.Unlock()
	if grabbed {
		m.dispatch(engine.PointerUp, pos)
	}
}

func (m *MapCanvas) MouseIn(ev *desktop.MouseEvent) {
	m.MouseMoved(ev)
}

func (m *MapCanvas) MouseMoved(ev *desktop.MouseEvent) {
	m.dispatch(engine.PointerMove, ev.Position)

	m.mu.Lock()
	fn := m.onPointer
	m.mu.Unlock()
	if fn == nil {
		return
	}
	if v, ok := m.surface.View(); ok {
		fn(v.ToMap(m.toPixel(ev.Position)))
	}
}

func (m *MapCanvas) MouseOut() {}

func (m *MapCanvas) Scrolled(ev *fyne.ScrollEvent) {
	switch {
	case ev.Scrolled.DY > 0:
		m.surface.ZoomBy(wheelZoomStep, m.toPixel(ev.Position))
	case ev.Scrolled.DY < 0:
		m.surface.ZoomBy(-wheelZoomStep, m.toPixel(ev.Position))
	}
}

func (m *MapCanvas) center() geometry.Point2D {
	return m.toPixel(fyne.NewPos(m.Size().Width/2, m.Size().Height/2))
}

func (m *MapCanvas) FocusGained() {}

func (m *MapCanvas) FocusLost() {}

func (m *MapCanvas) TypedRune(r rune) {
	switch r {
	case '+', '=':
		m.surface.ZoomBy(keyZoomStep, m.center())
	case '-':
		m.surface.ZoomBy(-keyZoomStep, m.center())
	}
}

func (m *MapCanvas) TypedKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape {
		m.surface.AbortGestures()
	}
}

func (m *MapCanvas) requestFocus() {
	a := fyne.CurrentApp()
	if a == nil {
		return
	}
	if c := a.Driver().CanvasForObject(m); c != nil {
		c.Focus(m)
	}
}

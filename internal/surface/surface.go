// Package surface binds a rendering engine to a feature store: it owns the
// view, the base and annotation layers, and the set of attached
// interactions, and routes pointer events to them.
package surface

import (
	"errors"
	"image"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"ottermap/internal/engine"
	"ottermap/internal/features"
	"ottermap/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/project"
)

var (
	// ErrSurfaceNotReady is returned by operations that need an initialized,
	// live surface.
	ErrSurfaceNotReady = errors.New("map surface not ready")
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("map surface already initialized")
)

// maxLatitude is the mercator latitude limit in degrees.
const maxLatitude = 85.05112878

// LatLon is a geographic position in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Surface is the map canvas. It is created empty, becomes ready after
// Initialize, and is unusable after Destroy.
type Surface struct {
	engine engine.Engine
	store  *features.Store
	logger *slog.Logger

	// mu guards the view, the layers and the attached list. It is also held
	// while interactions handle events and while sketches render, since
	// interaction state is not otherwise synchronized.
	mu        sync.Mutex
	view      *engine.View
	base      engine.Layer
	vector    engine.VectorLayer
	attached  []engine.Interaction
	destroyed bool

	ready     chan struct{}
	readyOnce sync.Once

	revision    atomic.Uint64
	dispatching atomic.Bool
	pending     atomic.Bool

	listenersMu sync.RWMutex
	listeners   []func()
}

// New creates an uninitialized surface drawing the features of store.
func New(eng engine.Engine, store *features.Store, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Surface{
		engine: eng,
		store:  store,
		logger: logger,
		ready:  make(chan struct{}),
	}
	store.OnChange(func(features.Change) { s.invalidate() })
	return s
}

// Initialize creates the view centered on center at the given zoom along with
// the base and annotation layers, then signals readiness. It may be called
// once.
func (s *Surface) Initialize(center LatLon, zoom float64) error {
	s.mu.Lock()
	if s.view != nil || s.destroyed {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.view = s.engine.CreateView(ToMap(center), zoom)
	s.base = s.engine.CreateBaseLayer()
	s.vector = s.engine.CreateVectorLayer(s.store)
	zoom = s.view.Zoom
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Info("map surface ready", "lat", center.Lat, "lon", center.Lon, "zoom", zoom)
	s.invalidate()
	return nil
}

// ToMap projects a geographic position to spherical mercator map units.
func ToMap(ll LatLon) geometry.Point2D {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, ll.Lat))
	return geometry.FromOrb(project.WGS84.ToMercator(orb.Point{ll.Lon, lat}))
}

// ToLatLon converts map units back to a geographic position.
func ToLatLon(p geometry.Point2D) LatLon {
	ll := project.Mercator.ToWGS84(p.Orb())
	return LatLon{Lat: ll.Lat(), Lon: ll.Lon()}
}

// Ready returns a channel closed once the surface is initialized.
func (s *Surface) Ready() <-chan struct{} {
	return s.ready
}

// IsReady reports whether the surface is initialized and not destroyed.
func (s *Surface) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view != nil && !s.destroyed
}

// Attach adds an interaction. Attaching an interaction twice is a no-op.
func (s *Surface) Attach(i engine.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil || s.destroyed {
		return ErrSurfaceNotReady
	}
	if slices.Contains(s.attached, i) {
		return nil
	}
	s.attached = append(s.attached, i)
	s.logger.Debug("interaction attached", "kind", i.Kind(), "attached", len(s.attached))
	return nil
}

// Detach removes an interaction. Detaching one that is not attached is a
// no-op. Gestures in progress are not aborted.
func (s *Surface) Detach(i engine.Interaction) {
	s.mu.Lock()
	idx := slices.Index(s.attached, i)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.attached = slices.Delete(s.attached, idx, idx+1)
	s.mu.Unlock()

	s.logger.Debug("interaction detached", "kind", i.Kind())
	s.invalidate()
}

// Attached returns the attached interactions in attach order.
func (s *Surface) Attached() []engine.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.attached)
}

// Dispatch delivers a pointer event at a pixel position to the attached
// interactions, most recently attached first, until one consumes it. It
// reports whether the event was consumed.
func (s *Surface) Dispatch(typ engine.PointerType, pixel geometry.Point2D) bool {
	s.mu.Lock()
	if s.view == nil || s.destroyed {
		s.mu.Unlock()
		return false
	}
	ev := engine.PointerEvent{
		Type:       typ,
		Pixel:      pixel,
		Coord:      s.view.ToMap(pixel),
		Resolution: s.view.Resolution(),
		Hits:       s.vector,
	}

	s.dispatching.Store(true)
	consumed := false
	for _, i := range slices.Backward(s.attached) {
		if i.HandleEvent(ev) {
			consumed = true
			break
		}
	}
	s.dispatching.Store(false)
	s.mu.Unlock()

	if consumed || s.pending.Swap(false) {
		s.invalidate()
	}
	return consumed
}

// AbortGestures discards in-progress gestures of every attached interaction.
func (s *Surface) AbortGestures() {
	s.mu.Lock()
	for _, i := range s.attached {
		i.Abort()
	}
	s.mu.Unlock()
	s.invalidate()
}

// Render paints the map into a new width x height image. An unready surface
// renders transparent.
func (s *Surface) Render(width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil || s.destroyed || width <= 0 || height <= 0 {
		return dst
	}
	s.view.SetSize(width, height)

	s.base.Render(dst, s.view)
	s.vector.Render(dst, s.view)
	for _, i := range s.attached {
		if sk, ok := i.(engine.Sketcher); ok {
			sk.RenderSketch(dst, s.view)
		}
	}
	return dst
}

// View returns a copy of the current view.
func (s *Surface) View() (engine.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return engine.View{}, false
	}
	return *s.view, true
}

// Resize sets the viewport size used to convert event pixels.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != nil {
		s.view.SetSize(width, height)
	}
}

// Pan moves the view by a pixel delta.
func (s *Surface) Pan(dx, dy float64) {
	s.mu.Lock()
	if s.view == nil {
		s.mu.Unlock()
		return
	}
	s.view.Pan(dx, dy)
	s.mu.Unlock()
	s.invalidate()
}

// ZoomBy changes the zoom level by delta, keeping the map coordinate under
// the anchor pixel fixed.
func (s *Surface) ZoomBy(delta float64, anchor geometry.Point2D) {
	s.mu.Lock()
	if s.view == nil {
		s.mu.Unlock()
		return
	}
	before := s.view.ToMap(anchor)
	s.view.SetZoom(s.view.Zoom + delta)
	after := s.view.ToMap(anchor)
	s.view.Center = s.view.Center.Add(before.Sub(after))
	s.mu.Unlock()
	s.invalidate()
}

// Revision increases every time the rendered output may have changed.
func (s *Surface) Revision() uint64 {
	return s.revision.Load()
}

// OnInvalidate registers a callback run whenever the surface needs
// repainting. Callbacks never run while an event is being dispatched.
func (s *Surface) OnInvalidate(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Invalidate requests a repaint, for example after a style change.
func (s *Surface) Invalidate() {
	s.invalidate()
}

func (s *Surface) invalidate() {
	s.revision.Add(1)
	if s.dispatching.Load() {
		s.pending.Store(true)
		return
	}
	s.listenersMu.RLock()
	listeners := s.listeners
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// Destroy aborts and detaches every interaction and releases the layers.
// The surface cannot be used afterwards.
func (s *Surface) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	for _, i := range s.attached {
		i.Abort()
	}
	s.attached = nil
	s.base = nil
	s.vector = nil
	s.destroyed = true
	s.mu.Unlock()

	s.listenersMu.Lock()
	s.listeners = nil
	s.listenersMu.Unlock()
	s.logger.Info("map surface destroyed")
}

// GroundArea returns the geodesic area in square metres of a ring given in
// map units.
func GroundArea(ring []geometry.Point2D) float64 {
	if len(ring) < 3 {
		return 0
	}
	lonLat := project.Ring(geometry.ToRing(ring), project.Mercator.ToWGS84)
	return geo.Area(orb.Polygon{lonLat})
}

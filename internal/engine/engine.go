// Package engine provides the map rendering engine: layers, the view, and the
// pointer interactions that edit polygons.
package engine

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync/atomic"

	"ottermap/internal/features"
	"ottermap/pkg/colorutil"
	"ottermap/pkg/geometry"
)

// ErrUnsupportedGeometry is returned when a draw interaction is requested for
// a geometry type other than GeometryPolygon.
var ErrUnsupportedGeometry = errors.New("unsupported geometry type")

// GeometryType names the kind of geometry a draw interaction produces.
type GeometryType string

const (
	GeometryPolygon    GeometryType = "Polygon"
	GeometryLineString GeometryType = "LineString"
	GeometryPoint      GeometryType = "Point"
)

// Kind identifies what a handle is.
type Kind int

const (
	KindBaseLayer Kind = iota
	KindVectorLayer
	KindDraw
	KindModify
	KindSelect
)

func (k Kind) String() string {
	switch k {
	case KindBaseLayer:
		return "base"
	case KindVectorLayer:
		return "vector"
	case KindDraw:
		return "draw"
	case KindModify:
		return "modify"
	case KindSelect:
		return "select"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Handle is an opaque object created by the engine.
type Handle interface {
	Kind() Kind
}

// Layer is a handle that paints onto the map.
type Layer interface {
	Handle
	Render(dst *image.RGBA, view *View)
}

// VectorLayer is a layer bound to a feature store.
type VectorLayer interface {
	Layer
	HitTester
}

// Interaction is a handle that reacts to pointer events once attached to a
// surface. HandleEvent reports whether the event was consumed. Abort discards
// any gesture in progress.
type Interaction interface {
	Handle
	HandleEvent(ev PointerEvent) bool
	Abort()
}

// Sketcher is implemented by interactions that paint transient state, such
// as an unfinished polygon.
type Sketcher interface {
	RenderSketch(dst *image.RGBA, view *View)
}

// SelectEvent is delivered to select listeners.
type SelectEvent struct {
	Selected []*features.Polygon
	Coord    geometry.Point2D
}

// SelectInteraction reports the features picked by a click.
type SelectInteraction interface {
	Interaction
	OnSelect(func(SelectEvent))
}

// Engine is the rendering engine capability consumed by the map surface and
// the interaction controller.
type Engine interface {
	CreateBaseLayer() Layer
	CreateVectorLayer(store *features.Store) VectorLayer
	CreateView(center geometry.Point2D, zoom float64) *View
	CreateDrawInteraction(store *features.Store, geometryType GeometryType) (Interaction, error)
	CreateModifyInteraction(store *features.Store) Interaction
	CreateSelectInteraction(condition Condition) SelectInteraction
}

// Style holds the colors and sizes used when painting.
type Style struct {
	Background   color.NRGBA
	Grid         color.NRGBA
	Label        color.NRGBA
	Stroke       color.NRGBA
	Fill         color.NRGBA
	Sketch       color.NRGBA
	StrokeWidth  int
	VertexRadius int
}

// DefaultStyle returns the annotation style: a gold outline with a
// half-transparent gold fill.
func DefaultStyle() Style {
	return Style{
		Background:   color.NRGBA{R: 0xaa, G: 0xd3, B: 0xdf, A: 0xff},
		Grid:         color.NRGBA{R: 0x7f, G: 0xa6, B: 0xb3, A: 0xff},
		Label:        color.NRGBA{R: 0x20, G: 0x3a, B: 0x43, A: 0xff},
		Stroke:       colorutil.Gold,
		Fill:         colorutil.WithAlpha(colorutil.Gold, 0x80),
		Sketch:       color.NRGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff},
		StrokeWidth:  2,
		VertexRadius: 4,
	}
}

// Options configures a Software engine.
type Options struct {
	Style Style
	// SnapTolerance is the distance in pixels within which a draw click
	// closes the ring and a modify press grabs a vertex or edge.
	SnapTolerance float64
	Logger        *slog.Logger
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		Style:         DefaultStyle(),
		SnapTolerance: 8,
	}
}

// Software is an Engine that rasterizes into an image.RGBA.
type Software struct {
	style         atomic.Pointer[Style]
	snapTolerance atomic.Uint64
	logger        *slog.Logger
}

var _ Engine = (*Software)(nil)

// New creates a software engine.
func New(opts Options) *Software {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.SnapTolerance <= 0 {
		opts.SnapTolerance = DefaultOptions().SnapTolerance
	}
	e := &Software{logger: logger}
	style := opts.Style
	e.style.Store(&style)
	e.SetSnapTolerance(opts.SnapTolerance)
	return e
}

// Style returns the current style.
func (e *Software) Style() Style {
	return *e.style.Load()
}

// SetStyle replaces the style used by every layer and interaction created by
// this engine. Safe to call from any goroutine.
func (e *Software) SetStyle(s Style) {
	e.style.Store(&s)
}

// SnapTolerance returns the snap distance in pixels.
func (e *Software) SnapTolerance() float64 {
	return math.Float64frombits(e.snapTolerance.Load())
}

// SetSnapTolerance changes the snap distance used by draw and modify
// interactions, including ones already attached. Non-positive values are
// ignored.
func (e *Software) SetSnapTolerance(px float64) {
	if px <= 0 {
		return
	}
	e.snapTolerance.Store(math.Float64bits(px))
}

// CreateBaseLayer creates the background tile-grid layer.
func (e *Software) CreateBaseLayer() Layer {
	return &baseLayer{engine: e}
}

// CreateVectorLayer creates a layer that paints the polygons of store.
func (e *Software) CreateVectorLayer(store *features.Store) VectorLayer {
	return &vectorLayer{engine: e, store: store}
}

// CreateView creates a view centered on center (map units).
func (e *Software) CreateView(center geometry.Point2D, zoom float64) *View {
	return NewView(center, zoom)
}

// CreateDrawInteraction creates an interaction that commits one polygon to
// store per completed gesture.
func (e *Software) CreateDrawInteraction(store *features.Store, geometryType GeometryType) (Interaction, error) {
	if geometryType != GeometryPolygon {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, geometryType)
	}
	return &drawInteraction{engine: e, store: store}, nil
}

// CreateModifyInteraction creates an interaction that drags the vertices of
// polygons in store.
func (e *Software) CreateModifyInteraction(store *features.Store) Interaction {
	return &modifyInteraction{engine: e, store: store}
}

// CreateSelectInteraction creates an interaction that picks the topmost
// feature under the pointer for events matching condition.
func (e *Software) CreateSelectInteraction(condition Condition) SelectInteraction {
	if condition == nil {
		condition = Click
	}
	return &selectInteraction{engine: e, condition: condition}
}

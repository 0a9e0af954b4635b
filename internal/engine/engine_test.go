package engine

import (
	"image"
	"slices"
	"testing"

	"ottermap/internal/features"
	"ottermap/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResolution = 0.001

func at(t PointerType, x, y float64) PointerEvent {
	return PointerEvent{Type: t, Coord: geometry.Point2D{X: x, Y: y}, Resolution: testResolution}
}

func newDraw(t *testing.T) (*drawInteraction, *features.Store) {
	t.Helper()
	store := features.NewStore()
	i, err := New(DefaultOptions()).CreateDrawInteraction(store, GeometryPolygon)
	require.NoError(t, err)
	return i.(*drawInteraction), store
}

func TestDrawCommitsOnFirstVertexClick(t *testing.T) {
	d, store := newDraw(t)

	for _, p := range [][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}} {
		assert.True(t, d.HandleEvent(at(PointerClick, p[0], p[1])))
	}
	assert.Zero(t, store.Len(), "nothing committed before the ring is closed")
	d.HandleEvent(at(PointerClick, 0.001, 0.001))

	all := slices.Collect(store.All())
	require.Len(t, all, 1)
	assert.Equal(t, []geometry.Point2D{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}, all[0].Ring)
	assert.Empty(t, d.Sketch())
}

func TestSnapToleranceChangeReachesAttachedDraw(t *testing.T) {
	e := New(DefaultOptions())
	store := features.NewStore()
	i, err := e.CreateDrawInteraction(store, GeometryPolygon)
	require.NoError(t, err)
	d := i.(*drawInteraction)

	for _, p := range [][2]float64{{0, 0}, {0, 1}, {1, 1}} {
		d.HandleEvent(at(PointerClick, p[0], p[1]))
	}
	e.SetSnapTolerance(0)
	assert.Equal(t, 8.0, e.SnapTolerance(), "non-positive tolerance is ignored")

	e.SetSnapTolerance(30)
	d.HandleEvent(at(PointerClick, 0.02, 0.02))

	all := slices.Collect(store.All())
	require.Len(t, all, 1, "a click 20px from the first vertex closes the ring")
	assert.Equal(t, 3, all[0].VertexCount())
}

func TestDrawCommitsOnDoubleClick(t *testing.T) {
	d, store := newDraw(t)
	d.HandleEvent(at(PointerClick, 0, 0))
	d.HandleEvent(at(PointerClick, 0, 2))
	d.HandleEvent(at(PointerDoubleClick, 2, 2))

	all := slices.Collect(store.All())
	require.Len(t, all, 1)
	assert.Equal(t, 3, all[0].VertexCount())
}

func TestDrawDiscardsDegenerateSketch(t *testing.T) {
	d, store := newDraw(t)
	d.HandleEvent(at(PointerClick, 0, 0))
	d.HandleEvent(at(PointerClick, 1, 1))
	d.HandleEvent(at(PointerDoubleClick, 1, 1))

	assert.Zero(t, store.Len())
	assert.Empty(t, d.Sketch())
}

func TestDrawAbortDiscardsSketch(t *testing.T) {
	d, store := newDraw(t)
	d.HandleEvent(at(PointerClick, 0, 0))
	d.HandleEvent(at(PointerClick, 0, 1))
	d.Abort()
	assert.Empty(t, d.Sketch())

	d.HandleEvent(at(PointerClick, 5, 5))
	assert.Equal(t, []geometry.Point2D{{5, 5}}, d.Sketch())
	assert.Zero(t, store.Len())
}

func TestDrawIgnoresPressAndRelease(t *testing.T) {
	d, _ := newDraw(t)
	assert.False(t, d.HandleEvent(at(PointerDown, 0, 0)))
	assert.False(t, d.HandleEvent(at(PointerUp, 0, 0)))
	assert.False(t, d.HandleEvent(at(PointerMove, 0, 0)), "hover without a sketch is not consumed")
}

func TestDrawRejectsOtherGeometry(t *testing.T) {
	_, err := New(DefaultOptions()).CreateDrawInteraction(features.NewStore(), GeometryPoint)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
}

func addPolygon(t *testing.T, store *features.Store, vertices ...geometry.Point2D) *features.Polygon {
	t.Helper()
	p, err := features.NewPolygon(vertices)
	require.NoError(t, err)
	require.NoError(t, store.Add(p))
	return p
}

func TestModifyDragsVertex(t *testing.T) {
	store := features.NewStore()
	p := addPolygon(t, store, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 0, Y: 1}, geometry.Point2D{X: 1, Y: 1})
	m := New(DefaultOptions()).CreateModifyInteraction(store)

	require.True(t, m.HandleEvent(at(PointerDown, 0.002, 1.001)))
	m.HandleEvent(at(PointerMove, 0, 1.5))
	m.HandleEvent(at(PointerMove, 0, 2))
	require.True(t, m.HandleEvent(at(PointerUp, 0, 2)))

	got, ok := store.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, []geometry.Point2D{{0, 0}, {0, 2}, {1, 1}, {0, 0}}, got.Ring)

	assert.False(t, m.HandleEvent(at(PointerMove, 3, 3)), "moves after release are not consumed")
	got, _ = store.Get(p.ID)
	assert.Equal(t, geometry.Point2D{X: 0, Y: 2}, got.Ring[1])
}

func TestModifyInsertsVertexOnEdge(t *testing.T) {
	store := features.NewStore()
	p := addPolygon(t, store, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 0, Y: 2}, geometry.Point2D{X: 2, Y: 2})
	m := New(DefaultOptions()).CreateModifyInteraction(store)

	require.True(t, m.HandleEvent(at(PointerDown, 0.001, 1)))
	m.HandleEvent(at(PointerMove, -1, 1))
	m.HandleEvent(at(PointerUp, -1, 1))

	got, _ := store.Get(p.ID)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, []geometry.Point2D{{0, 0}, {-1, 1}, {0, 2}, {2, 2}, {0, 0}}, got.Ring)
}

func TestModifyMissIsNotConsumed(t *testing.T) {
	store := features.NewStore()
	addPolygon(t, store, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 0, Y: 2}, geometry.Point2D{X: 2, Y: 2})
	m := New(DefaultOptions()).CreateModifyInteraction(store)
	assert.False(t, m.HandleEvent(at(PointerDown, 10, 10)))
}

func TestSelectReportsTopmostFeature(t *testing.T) {
	e := New(DefaultOptions())
	store := features.NewStore()
	addPolygon(t, store, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 10, Y: 0}, geometry.Point2D{X: 0, Y: 10})
	top := addPolygon(t, store, geometry.Point2D{X: 1, Y: 1}, geometry.Point2D{X: 5, Y: 1}, geometry.Point2D{X: 1, Y: 5})
	layer := e.CreateVectorLayer(store)

	s := e.CreateSelectInteraction(Click)
	var got []SelectEvent
	s.OnSelect(func(ev SelectEvent) { got = append(got, ev) })

	ev := at(PointerClick, 2, 2)
	ev.Hits = layer
	assert.True(t, s.HandleEvent(ev))
	require.Len(t, got, 1)
	require.Len(t, got[0].Selected, 1)
	assert.Equal(t, top.ID, got[0].Selected[0].ID)

	miss := at(PointerClick, 50, 50)
	miss.Hits = layer
	assert.False(t, s.HandleEvent(miss))

	down := at(PointerDown, 2, 2)
	down.Hits = layer
	assert.False(t, s.HandleEvent(down), "condition filters non-click events")
	assert.Len(t, got, 1)
}

func TestViewRoundTrip(t *testing.T) {
	v := NewView(geometry.Point2D{X: 1000, Y: -500}, 10)
	v.SetSize(800, 600)

	center := v.ToPixel(v.Center)
	assert.InDelta(t, 400, center.X, 1e-6)
	assert.InDelta(t, 300, center.Y, 1e-6)

	north := v.ToPixel(geometry.Point2D{X: 1000, Y: -500 + v.Resolution()*10})
	assert.InDelta(t, 290, north.Y, 1e-6, "map north is pixel up")

	px := geometry.Point2D{X: 123, Y: 456}
	back := v.ToPixel(v.ToMap(px))
	assert.InDelta(t, px.X, back.X, 1e-6)
	assert.InDelta(t, px.Y, back.Y, 1e-6)

	v.Pan(10, 0)
	assert.InDelta(t, 1000-10*v.Resolution(), v.Center.X, 1e-6)

	v.SetZoom(99)
	assert.Equal(t, MaxZoom, v.Zoom)
}

func TestVectorLayerPaintsFill(t *testing.T) {
	e := New(DefaultOptions())
	store := features.NewStore()
	addPolygon(t, store, geometry.Point2D{X: -100, Y: -100}, geometry.Point2D{X: 100, Y: -100}, geometry.Point2D{X: 100, Y: 100}, geometry.Point2D{X: -100, Y: 100})

	v := NewView(geometry.Point2D{}, 18)
	v.SetSize(200, 200)
	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	e.CreateBaseLayer().Render(dst, v)
	before := dst.RGBAAt(100, 100)

	e.CreateVectorLayer(store).Render(dst, v)
	after := dst.RGBAAt(100, 100)
	assert.NotEqual(t, before, after)
	assert.Greater(t, after.R, before.R, "gold fill raises red")
}

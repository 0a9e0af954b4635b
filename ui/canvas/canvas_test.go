package canvas

import (
	"slices"
	"testing"

	"ottermap/internal/engine"
	"ottermap/internal/features"
	"ottermap/internal/interaction"
	"ottermap/internal/surface"
	"ottermap/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	canvas *MapCanvas
	surf   *surface.Surface
	store  *features.Store
	ctrl   *interaction.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	test.NewApp()

	store := features.NewStore()
	eng := engine.New(engine.DefaultOptions())
	surf := surface.New(eng, store, nil)
	require.NoError(t, surf.Initialize(surface.LatLon{}, 18))

	m := NewMapCanvas(surf)
	m.Resize(fyne.NewSize(400, 300))
	return &fixture{
		canvas: m,
		surf:   surf,
		store:  store,
		ctrl:   interaction.New(eng, surf, store, interaction.Options{}),
	}
}

func tap(m *MapCanvas, x, y float32) {
	m.Tapped(&fyne.PointEvent{Position: fyne.NewPos(x, y)})
}

func TestResizeSetsViewport(t *testing.T) {
	f := newFixture(t)
	v, ok := f.surf.View()
	require.True(t, ok)
	assert.Equal(t, 400, v.Width)
	assert.Equal(t, 300, v.Height)
}

func TestDrawWithTaps(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Activate(interaction.ModeDraw))

	tap(f.canvas, 100, 100)
	tap(f.canvas, 200, 100)
	f.canvas.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(150, 200)})

	all := slices.Collect(f.store.All())
	require.Len(t, all, 1)
	v, _ := f.surf.View()
	first := v.ToPixel(all[0].Ring[0])
	assert.InDelta(t, 100, first.X, 1e-6)
	assert.InDelta(t, 100, first.Y, 1e-6)
}

func TestEscapeAbortsSketch(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Activate(interaction.ModeDraw))

	tap(f.canvas, 100, 100)
	tap(f.canvas, 200, 100)
	f.canvas.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	tap(f.canvas, 150, 200)
	f.canvas.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(150, 250)})

	assert.Zero(t, f.store.Len(), "two points after escape are not a polygon")
}

func TestDragPansWhenUnclaimed(t *testing.T) {
	f := newFixture(t)
	before, _ := f.surf.View()

	f.canvas.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)}, Button: desktop.MouseButtonPrimary})
	f.canvas.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(30, 10)}, Dragged: fyne.NewDelta(20, 0)})
	f.canvas.DragEnd()

	after, _ := f.surf.View()
	assert.InDelta(t, before.Center.X-20*before.Resolution(), after.Center.X, 1e-6)
	assert.Equal(t, before.Center.Y, after.Center.Y)
}

func TestDragEditsWhenVertexGrabbed(t *testing.T) {
	f := newFixture(t)
	v, _ := f.surf.View()
	p, err := features.NewPolygon([]geometry.Point2D{
		v.ToMap(geometry.Point2D{X: 100, Y: 100}),
		v.ToMap(geometry.Point2D{X: 200, Y: 100}),
		v.ToMap(geometry.Point2D{X: 150, Y: 200}),
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Add(p))
	require.NoError(t, f.ctrl.Activate(interaction.ModeModify))

	press := &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(101, 101)}, Button: desktop.MouseButtonPrimary}
	f.canvas.MouseDown(press)
	f.canvas.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(50, 60)}, Dragged: fyne.NewDelta(-51, -41)})
	f.canvas.MouseUp(press)
	f.canvas.DragEnd()

	after, _ := f.surf.View()
	assert.Equal(t, v.Center, after.Center, "grabbed drags do not pan")
	got, ok := f.store.Get(p.ID)
	require.True(t, ok)
	moved := after.ToPixel(got.Ring[0])
	assert.InDelta(t, 50, moved.X, 1e-6)
	assert.InDelta(t, 60, moved.Y, 1e-6)
}

func TestWheelZoom(t *testing.T) {
	f := newFixture(t)
	f.canvas.Scrolled(&fyne.ScrollEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(200, 150)}, Scrolled: fyne.NewDelta(0, 1)})
	v, _ := f.surf.View()
	assert.Equal(t, 18.5, v.Zoom)

	f.canvas.TypedRune('-')
	v, _ = f.surf.View()
	assert.Equal(t, 17.5, v.Zoom)
}

func TestRenderMatchesRequestedSize(t *testing.T) {
	f := newFixture(t)
	img := f.canvas.render(800, 600)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, float32(2), f.canvas.pixelScale())
}

package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() []Point2D {
	return []Point2D{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
}

func TestCloseRing(t *testing.T) {
	closed := CloseRing(square())
	require.Len(t, closed, 5)
	assert.True(t, IsClosed(closed))
	assert.Equal(t, closed, CloseRing(closed), "closing a closed ring is a no-op")
	assert.Equal(t, square(), OpenRing(closed))
}

func TestDistinctCount(t *testing.T) {
	assert.Equal(t, 2, DistinctCount([]Point2D{{0, 0}, {1, 1}, {0, 0}}))
	assert.Equal(t, 4, DistinctCount(CloseRing(square())))
	assert.Equal(t, 0, DistinctCount(nil))
}

func TestPointInPolygon(t *testing.T) {
	tests := []struct {
		name string
		p    Point2D
		want bool
	}{
		{"center", Point2D{0.5, 0.5}, true},
		{"outside", Point2D{2, 2}, false},
		{"left of ring", Point2D{-0.1, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPolygon(tt.p, square()))
		})
	}

	assert.False(t, PointInPolygon(Point2D{0, 0}, []Point2D{{0, 0}, {1, 1}}), "degenerate ring never contains")
}

func TestArea(t *testing.T) {
	assert.InDelta(t, 1.0, Area(square()), 1e-9)
	tri := []Point2D{{0, 0}, {4, 0}, {0, 3}}
	assert.InDelta(t, 6.0, Area(tri), 1e-9)
}

func TestNearestOnSegment(t *testing.T) {
	q, d, pos := NearestOnSegment(Point2D{5, 2}, Point2D{0, 0}, Point2D{10, 0})
	assert.Equal(t, Point2D{5, 0}, q)
	assert.InDelta(t, 2.0, d, 1e-9)
	assert.InDelta(t, 0.5, pos, 1e-9)

	q, _, pos = NearestOnSegment(Point2D{-3, 0}, Point2D{0, 0}, Point2D{10, 0})
	assert.Equal(t, Point2D{0, 0}, q)
	assert.Zero(t, pos)
}

func TestAffineInverse(t *testing.T) {
	tr := Translation(10, -4).Compose(Scale(2, -2))
	inv, ok := tr.Inverse()
	require.True(t, ok)
	p := Point2D{3, 7}
	back := inv.Apply(tr.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	_, ok = Scale(0, 1).Inverse()
	assert.False(t, ok)
}

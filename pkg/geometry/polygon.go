package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"
)

// DistinctCount returns the number of pairwise distinct points.
func DistinctCount(points []Point2D) int {
	seen := make(map[Point2D]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// IsClosed returns true if the first and last points coincide.
func IsClosed(ring []Point2D) bool {
	return len(ring) > 1 && ring[0] == ring[len(ring)-1]
}

// CloseRing returns a copy of points with the first point repeated at the end,
// unless it already is.
func CloseRing(points []Point2D) []Point2D {
	out := make([]Point2D, len(points), len(points)+1)
	copy(out, points)
	if len(out) > 0 && !IsClosed(out) {
		out = append(out, out[0])
	}
	return out
}

// OpenRing returns a copy of ring without the closing point.
func OpenRing(ring []Point2D) []Point2D {
	n := len(ring)
	if IsClosed(ring) {
		n--
	}
	out := make([]Point2D, n)
	copy(out, ring[:n])
	return out
}

// ToRing converts points to a closed orb.Ring.
func ToRing(points []Point2D) orb.Ring {
	closed := CloseRing(points)
	ring := make(orb.Ring, len(closed))
	for i, p := range closed {
		ring[i] = p.Orb()
	}
	return ring
}

// FromRing converts an orb.Ring to points, closing it if needed.
func FromRing(ring orb.Ring) []Point2D {
	points := make([]Point2D, len(ring))
	for i, p := range ring {
		points[i] = FromOrb(p)
	}
	return CloseRing(points)
}

// PointInPolygon tests if a point is inside the ring. Points on the boundary
// count as inside.
func PointInPolygon(p Point2D, ring []Point2D) bool {
	if DistinctCount(ring) < 3 {
		return false
	}
	return planar.RingContains(ToRing(ring), p.Orb())
}

// Area returns the unsigned planar area enclosed by the ring.
func Area(ring []Point2D) float64 {
	if len(ring) < 3 {
		return 0
	}
	return math.Abs(planar.Area(ToRing(ring)))
}

// NearestOnSegment returns the point of segment a-b closest to p, the distance
// to it, and the parametric position along the segment (0 at a, 1 at b).
func NearestOnSegment(p, a, b Point2D) (Point2D, float64, float64) {
	pv := r2.Vec{X: p.X, Y: p.Y}
	av := r2.Vec{X: a.X, Y: a.Y}
	ab := r2.Sub(r2.Vec{X: b.X, Y: b.Y}, av)

	t := 0.0
	if l2 := r2.Norm2(ab); l2 > 0 {
		t = r2.Dot(r2.Sub(pv, av), ab) / l2
		t = math.Max(0, math.Min(1, t))
	}
	q := r2.Add(av, r2.Scale(t, ab))
	return Point2D{X: q.X, Y: q.Y}, r2.Norm(r2.Sub(pv, q)), t
}

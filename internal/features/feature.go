// Package features holds the polygon annotations drawn on the map.
package features

import (
	"errors"
	"fmt"

	"ottermap/pkg/geometry"

	"github.com/google/uuid"
)

// MinVertices is the smallest number of distinct vertices a polygon may have.
const MinVertices = 3

var (
	// ErrInvalidGeometry is returned for degenerate polygons.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrDuplicateFeature is returned when adding a feature whose ID is already stored.
	ErrDuplicateFeature = errors.New("duplicate feature")
	// ErrFeatureNotFound is returned by edits addressing a feature that is not stored.
	ErrFeatureNotFound = errors.New("feature not found")
	// ErrVertexIndex is returned by edits addressing a vertex that does not exist.
	ErrVertexIndex = errors.New("vertex index out of range")
)

// Polygon is a closed-ring annotation. Ring always repeats its first
// coordinate as its last.
type Polygon struct {
	ID   string
	Ring []geometry.Point2D
}

// NewPolygon creates a polygon with a fresh identity from the given vertices.
// The ring may be open or closed.
func NewPolygon(vertices []geometry.Point2D) (*Polygon, error) {
	if err := validate(vertices); err != nil {
		return nil, err
	}
	return &Polygon{
		ID:   uuid.NewString(),
		Ring: geometry.CloseRing(vertices),
	}, nil
}

func validate(vertices []geometry.Point2D) error {
	if n := geometry.DistinctCount(vertices); n < MinVertices {
		return fmt.Errorf("%w: %d distinct vertices, need at least %d", ErrInvalidGeometry, n, MinVertices)
	}
	return nil
}

// Vertices returns the ring without its closing coordinate.
func (p *Polygon) Vertices() []geometry.Point2D {
	return geometry.OpenRing(p.Ring)
}

// VertexCount returns the number of vertices, not counting the closing one.
func (p *Polygon) VertexCount() int {
	if geometry.IsClosed(p.Ring) {
		return len(p.Ring) - 1
	}
	return len(p.Ring)
}

// HitTest returns true if the point lies inside the polygon or on its edge.
func (p *Polygon) HitTest(pt geometry.Point2D) bool {
	if !p.Bounds().Contains(pt) {
		return false
	}
	return geometry.PointInPolygon(pt, p.Ring)
}

// Bounds returns the bounding rectangle of the ring.
func (p *Polygon) Bounds() geometry.Rect {
	return geometry.BoundingBox(p.Ring)
}

// Area returns the planar area in map units squared.
func (p *Polygon) Area() float64 {
	return geometry.Area(p.Ring)
}

// Clone returns a deep copy.
func (p *Polygon) Clone() *Polygon {
	ring := make([]geometry.Point2D, len(p.Ring))
	copy(ring, p.Ring)
	return &Polygon{ID: p.ID, Ring: ring}
}

package engine

import (
	"ottermap/internal/features"
	"ottermap/pkg/geometry"
)

// PointerType identifies a pointer event.
type PointerType int

const (
	PointerDown PointerType = iota
	PointerMove
	PointerUp
	PointerClick
	PointerDoubleClick
)

func (t PointerType) String() string {
	switch t {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerClick:
		return "click"
	case PointerDoubleClick:
		return "dblclick"
	default:
		return "unknown"
	}
}

// HitTester finds the feature drawn at a map coordinate.
type HitTester interface {
	FeatureAt(coord geometry.Point2D) (*features.Polygon, bool)
}

// PointerEvent is a pointer event with its pixel position already resolved
// to map coordinates by the surface.
type PointerEvent struct {
	Type  PointerType
	Pixel geometry.Point2D
	Coord geometry.Point2D
	// Resolution is the size of one pixel in map units at the time of the
	// event; interactions use it to convert pixel tolerances.
	Resolution float64
	// Hits resolves features under the pointer. May be nil.
	Hits HitTester
}

// Tolerance converts a pixel distance into map units for this event.
func (ev PointerEvent) Tolerance(pixels float64) float64 {
	if ev.Resolution <= 0 {
		return pixels
	}
	return pixels * ev.Resolution
}

// Condition decides whether a select interaction reacts to an event.
type Condition func(ev PointerEvent) bool

// Click matches single clicks.
func Click(ev PointerEvent) bool {
	return ev.Type == PointerClick
}

// DoubleClick matches double clicks.
func DoubleClick(ev PointerEvent) bool {
	return ev.Type == PointerDoubleClick
}

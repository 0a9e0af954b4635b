package features

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"ottermap/pkg/geometry"
)

// ChangeKind identifies the kind of mutation reported to listeners.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeModified
	ChangeCleared
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeModified:
		return "modified"
	case ChangeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Change describes one mutation of the store. ID is empty for ChangeCleared.
type Change struct {
	Kind ChangeKind
	ID   string
}

// ChangeListener is called after every mutation, outside the store lock.
type ChangeListener func(Change)

// Store owns the polygons currently drawn on the map.
//
// The published slice is never modified after it is stored: every mutation
// builds a new slice (and a new *Polygon for edited features), so All can
// hand out the current slice as a snapshot without copying it up front.
type Store struct {
	mu        sync.RWMutex
	items     []*Polygon
	ids       map[string]struct{}
	listeners []ChangeListener
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		ids: make(map[string]struct{}),
	}
}

// OnChange registers a listener for mutations.
func (s *Store) OnChange(listener ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Store) emit(c Change) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(c)
	}
}

// Add inserts a polygon. The ring is closed if it is open.
func (s *Store) Add(p *Polygon) error {
	if p == nil {
		return fmt.Errorf("%w: nil polygon", ErrInvalidGeometry)
	}
	if err := validate(p.Ring); err != nil {
		return err
	}
	stored := &Polygon{ID: p.ID, Ring: geometry.CloseRing(p.Ring)}

	s.mu.Lock()
	if _, exists := s.ids[p.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateFeature, p.ID)
	}
	s.ids[p.ID] = struct{}{}
	next := make([]*Polygon, len(s.items), len(s.items)+1)
	copy(next, s.items)
	s.items = append(next, stored)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeAdded, ID: p.ID})
	return nil
}

// Remove deletes a polygon by ID. Removing an absent ID is a no-op and
// returns false.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	delete(s.ids, id)
	s.items = slices.Delete(slices.Clone(s.items), i, i+1)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeRemoved, ID: id})
	return true
}

// Clear removes every polygon. It always notifies listeners, even when the
// store was already empty.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.ids = make(map[string]struct{})
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeCleared})
}

// All returns the polygons present at the instant of the call, in insertion
// order. Later mutations do not affect the sequence, which may be iterated
// any number of times. Each yielded polygon is a fresh copy.
func (s *Store) All() iter.Seq[*Polygon] {
	s.mu.RLock()
	snapshot := s.items
	s.mu.RUnlock()

	return func(yield func(*Polygon) bool) {
		for _, p := range snapshot {
			if !yield(p.Clone()) {
				return
			}
		}
	}
}

// Len returns the number of stored polygons.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns a copy of the polygon with the given ID.
func (s *Store) Get(id string) (*Polygon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return nil, false
}

// HitTest returns the topmost polygon containing pt. Later insertions are
// drawn above earlier ones.
func (s *Store) HitTest(pt geometry.Point2D) (*Polygon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].HitTest(pt) {
			return s.items[i].Clone(), true
		}
	}
	return nil, false
}

// VertexRef addresses one vertex of a stored polygon.
type VertexRef struct {
	ID    string
	Index int
}

// NearestVertex finds the vertex closest to pt within tolerance, preferring
// topmost polygons when distances tie.
func (s *Store) NearestVertex(pt geometry.Point2D, tolerance float64) (VertexRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best VertexRef
	bestDist := tolerance
	found := false
	for i := len(s.items) - 1; i >= 0; i-- {
		p := s.items[i]
		for j, v := range p.Vertices() {
			if d := v.Distance(pt); d <= bestDist && (!found || d < bestDist) {
				best = VertexRef{ID: p.ID, Index: j}
				bestDist = d
				found = true
			}
		}
	}
	return best, found
}

// EdgeHit is the result of NearestEdge: the point on the edge closest to the
// query, and the index of the vertex the edge starts at.
type EdgeHit struct {
	ID    string
	After int
	Point geometry.Point2D
}

// NearestEdge finds the polygon edge closest to pt within tolerance.
func (s *Store) NearestEdge(pt geometry.Point2D, tolerance float64) (EdgeHit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best EdgeHit
	bestDist := tolerance
	found := false
	for i := len(s.items) - 1; i >= 0; i-- {
		p := s.items[i]
		for j := 0; j+1 < len(p.Ring); j++ {
			q, d, _ := geometry.NearestOnSegment(pt, p.Ring[j], p.Ring[j+1])
			if d <= bestDist && (!found || d < bestDist) {
				best = EdgeHit{ID: p.ID, After: j, Point: q}
				bestDist = d
				found = true
			}
		}
	}
	return best, found
}

// MoveVertex moves one vertex of a polygon, keeping its identity and keeping
// the ring closed. An edit that would leave fewer than MinVertices distinct
// vertices is rejected and the polygon is left unchanged.
func (s *Store) MoveVertex(id string, index int, to geometry.Point2D) error {
	return s.edit(id, func(vertices []geometry.Point2D) ([]geometry.Point2D, error) {
		if index < 0 || index >= len(vertices) {
			return nil, fmt.Errorf("%w: %d of %d", ErrVertexIndex, index, len(vertices))
		}
		vertices[index] = to
		return vertices, nil
	})
}

// InsertVertex inserts a vertex after the vertex at index after and returns
// the index of the new vertex.
func (s *Store) InsertVertex(id string, after int, p geometry.Point2D) (int, error) {
	inserted := after + 1
	err := s.edit(id, func(vertices []geometry.Point2D) ([]geometry.Point2D, error) {
		if after < 0 || after >= len(vertices) {
			return nil, fmt.Errorf("%w: %d of %d", ErrVertexIndex, after, len(vertices))
		}
		return slices.Insert(vertices, inserted, p), nil
	})
	if err != nil {
		return -1, err
	}
	return inserted, nil
}

func (s *Store) edit(id string, fn func([]geometry.Point2D) ([]geometry.Point2D, error)) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFeatureNotFound, id)
	}
	vertices, err := fn(s.items[i].Vertices())
	if err == nil {
		err = validate(vertices)
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next := slices.Clone(s.items)
	// The vertex list is open, so a moved vertex landing on vertex 0 is
	// still a vertex of its own.
	next[i] = &Polygon{ID: id, Ring: append(slices.Clone(vertices), vertices[0])}
	s.items = next
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeModified, ID: id})
	return nil
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(id string) int {
	if _, ok := s.ids[id]; !ok {
		return -1
	}
	return slices.IndexFunc(s.items, func(p *Polygon) bool { return p.ID == id })
}

package engine

import "ottermap/internal/features"

// selectInteraction picks the topmost feature under the pointer for events
// matching its condition and reports it to listeners. It keeps no selection
// of its own.
type selectInteraction struct {
	engine    *Software
	condition Condition
	listeners []func(SelectEvent)
}

func (s *selectInteraction) Kind() Kind { return KindSelect }

func (s *selectInteraction) OnSelect(fn func(SelectEvent)) {
	s.listeners = append(s.listeners, fn)
}

func (s *selectInteraction) HandleEvent(ev PointerEvent) bool {
	if !s.condition(ev) || ev.Hits == nil {
		return false
	}
	hit, ok := ev.Hits.FeatureAt(ev.Coord)
	if !ok {
		return false
	}
	s.engine.logger.Debug("select: feature picked", "id", hit.ID)
	se := SelectEvent{Selected: []*features.Polygon{hit}, Coord: ev.Coord}
	for _, fn := range s.listeners {
		fn(se)
	}
	return true
}

func (s *selectInteraction) Abort() {}

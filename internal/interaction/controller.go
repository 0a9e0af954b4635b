// Package interaction implements the controller that keeps exactly one
// editing mode attached to the map surface.
package interaction

import (
	"fmt"
	"log/slog"
	"sync"

	"ottermap/internal/engine"
	"ottermap/internal/features"
	"ottermap/internal/metrics"
	"ottermap/internal/surface"
)

// Surface is the part of the map surface the controller drives.
type Surface interface {
	IsReady() bool
	Attach(i engine.Interaction) error
	Detach(i engine.Interaction)
}

// Options configures a Controller.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// Controller switches between the Draw, Modify and DeleteSelect modes. At
// most one interaction is attached to the surface at any time, and the
// previous one is always detached before the next is attached.
type Controller struct {
	engine  engine.Engine
	surface Surface
	store   *features.Store
	logger  *slog.Logger
	metrics *metrics.Collector

	// switching serializes mode switches; mu guards the fields below it.
	switching sync.Mutex
	mu        sync.Mutex
	mode      Mode
	active    engine.Interaction
	listeners []func(Mode)
}

// New creates a controller in ModeNone.
func New(eng engine.Engine, surf Surface, store *features.Store, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		engine:  eng,
		surface: surf,
		store:   store,
		logger:  logger,
		metrics: opts.Metrics,
	}
	store.OnChange(c.recordChange)
	c.metrics.SetFeatureCount(store.Len())
	return c
}

func (c *Controller) recordChange(ch features.Change) {
	switch ch.Kind {
	case features.ChangeAdded:
		c.metrics.FeatureAdded()
	case features.ChangeRemoved:
		c.metrics.FeatureRemoved()
	case features.ChangeCleared:
		c.metrics.Cleared()
	}
	c.metrics.SetFeatureCount(c.store.Len())
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Active returns the attached interaction, or nil in ModeNone.
func (c *Controller) Active() engine.Interaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// OnModeChange registers a listener called after every mode switch,
// including re-activation of the current mode.
func (c *Controller) OnModeChange(fn func(Mode)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Activate detaches the current interaction, discarding any gesture in
// progress, then creates and attaches a fresh interaction for mode.
// Activating the current mode again recreates its interaction.
// Activate(ModeNone) is Deactivate.
func (c *Controller) Activate(mode Mode) error {
	if mode == ModeNone {
		return c.Deactivate()
	}
	if !c.surface.IsReady() {
		return surface.ErrSurfaceNotReady
	}
	next, err := c.create(mode)
	if err != nil {
		return err
	}

	c.switching.Lock()
	from := c.teardown()
	if err := c.surface.Attach(next); err != nil {
		c.switching.Unlock()
		if from != ModeNone {
			c.notify(ModeNone)
		}
		return fmt.Errorf("attach %s: %w", mode, err)
	}
	c.mu.Lock()
	c.active = next
	c.mode = mode
	c.mu.Unlock()
	c.switching.Unlock()

	c.logger.Info("mode activated", "from", from.String(), "to", mode.String())
	c.metrics.ModeActivated(mode.String())
	c.notify(mode)
	return nil
}

// Deactivate detaches the current interaction, if any. Calling it in
// ModeNone does nothing.
func (c *Controller) Deactivate() error {
	if !c.surface.IsReady() {
		return surface.ErrSurfaceNotReady
	}
	c.switching.Lock()
	from := c.teardown()
	c.switching.Unlock()
	if from == ModeNone {
		return nil
	}

	c.logger.Info("mode deactivated", "from", from.String())
	c.notify(ModeNone)
	return nil
}

// teardown detaches and aborts the active interaction and returns the mode
// it belonged to. It must be called with c.switching held.
func (c *Controller) teardown() Mode {
	c.mu.Lock()
	prev, from := c.active, c.mode
	c.active = nil
	c.mode = ModeNone
	c.mu.Unlock()

	if prev != nil {
		c.surface.Detach(prev)
		prev.Abort()
	}
	return from
}

func (c *Controller) create(mode Mode) (engine.Interaction, error) {
	switch mode {
	case ModeDraw:
		return c.engine.CreateDrawInteraction(c.store, engine.GeometryPolygon)
	case ModeModify:
		return c.engine.CreateModifyInteraction(c.store), nil
	case ModeDeleteSelect:
		sel := c.engine.CreateSelectInteraction(engine.Click)
		sel.OnSelect(c.deleteSelected)
		return sel, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

func (c *Controller) deleteSelected(ev engine.SelectEvent) {
	for _, p := range ev.Selected {
		if c.store.Remove(p.ID) {
			c.logger.Info("feature deleted", "id", p.ID)
		}
	}
}

// ClearAll removes every feature. The mode is left as it is.
func (c *Controller) ClearAll() {
	n := c.store.Len()
	c.store.Clear()
	c.logger.Info("features cleared", "count", n)
}

// Execute runs a command of the map page.
func (c *Controller) Execute(cmd Command) error {
	switch cmd {
	case CommandDraw:
		return c.Activate(ModeDraw)
	case CommandEdit:
		return c.Activate(ModeModify)
	case CommandDelete:
		return c.Activate(ModeDeleteSelect)
	case CommandClear:
		c.ClearAll()
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (c *Controller) notify(mode Mode) {
	c.mu.Lock()
	listeners := c.listeners
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(mode)
	}
}

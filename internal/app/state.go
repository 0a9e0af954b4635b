// Package app ties the session, map surface and interaction controller
// together and publishes their changes to the UI as events.
package app

import (
	"errors"
	"log/slog"
	"sync"

	"ottermap/internal/config"
	"ottermap/internal/engine"
	"ottermap/internal/features"
	"ottermap/internal/interaction"
	"ottermap/internal/metrics"
	"ottermap/internal/session"
	"ottermap/internal/surface"
)

// ErrNoMap is returned by operations that need an open map page.
var ErrNoMap = errors.New("no map open")

// State holds the configuration and, while the map page is shown, the
// session and its map components.
type State struct {
	mu sync.RWMutex

	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	engine  *engine.Software

	// Map page, nil while the form is shown.
	session    *session.Session
	store      *features.Store
	surface    *surface.Surface
	controller *interaction.Controller

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	// EventSessionStarted carries the *session.Session; the map page is
	// created but not yet ready.
	EventSessionStarted EventType = iota
	// EventMapReady fires once the surface is initialized.
	EventMapReady
	// EventModeChanged carries the new interaction.Mode.
	EventModeChanged
	// EventFeaturesChanged carries the features.Change.
	EventFeaturesChanged
	// EventMapClosed fires after the map page is torn down.
	EventMapClosed
	// EventConfigReloaded carries the new *config.Config.
	EventConfigReloaded
)

// EventListener is called when an event occurs.
type EventListener func(data any)

// NewState creates the application state. m may be nil.
func NewState(cfg *config.Config, logger *slog.Logger, m *metrics.Collector) (*State, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger.With("component", "engine")
	return &State{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		engine:    engine.New(opts),
		listeners: make(map[EventType][]EventListener),
	}, nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data any) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Config returns the current configuration.
func (s *State) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Logger returns the application logger.
func (s *State) Logger() *slog.Logger {
	return s.logger
}

// Engine returns the rendering engine.
func (s *State) Engine() *engine.Software {
	return s.engine
}

// Session returns the current session, or nil on the form page.
func (s *State) Session() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Store returns the feature store of the open map, or nil.
func (s *State) Store() *features.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Surface returns the surface of the open map, or nil.
func (s *State) Surface() *surface.Surface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surface
}

// Controller returns the interaction controller of the open map, or nil.
func (s *State) Controller() *interaction.Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller
}

// OpenMap creates the map page for sess, replacing any open one, and
// initializes its surface on the session's location. Listeners of
// EventSessionStarted run before the surface is ready.
func (s *State) OpenMap(sess *session.Session) error {
	s.CloseMap()

	store := features.NewStore()
	surf := surface.New(s.engine, store, s.logger.With("component", "surface"))
	ctrl := interaction.New(s.engine, surf, store, interaction.Options{
		Logger:  s.logger.With("component", "controller"),
		Metrics: s.metrics,
	})
	store.OnChange(func(c features.Change) { s.Emit(EventFeaturesChanged, c) })
	ctrl.OnModeChange(func(m interaction.Mode) { s.Emit(EventModeChanged, m) })

	s.mu.Lock()
	s.session = sess
	s.store = store
	s.surface = surf
	s.controller = ctrl
	defaults := s.cfg.MapDefaults()
	s.mu.Unlock()

	s.logger.Info("session started", "name", sess.DisplayName())
	s.Emit(EventSessionStarted, sess)

	center, zoom := defaults.InitialView(sess)
	if err := surf.Initialize(surface.LatLon{Lat: center.Lat, Lon: center.Lon}, zoom); err != nil {
		return err
	}
	s.Emit(EventMapReady, surf)
	return nil
}

// CloseMap tears down the map page: the active interaction is detached and
// the surface destroyed. Drawn features are discarded with it.
func (s *State) CloseMap() {
	s.mu.Lock()
	surf, ctrl := s.surface, s.controller
	s.session = nil
	s.store = nil
	s.surface = nil
	s.controller = nil
	s.mu.Unlock()

	if surf == nil {
		return
	}
	if err := ctrl.Deactivate(); err != nil && !errors.Is(err, surface.ErrSurfaceNotReady) {
		s.logger.Warn("deactivate on close", "error", err)
	}
	surf.Destroy()
	s.Emit(EventMapClosed, nil)
}

// Execute runs a map page command.
func (s *State) Execute(cmd interaction.Command) error {
	ctrl := s.Controller()
	if ctrl == nil {
		return ErrNoMap
	}
	return ctrl.Execute(cmd)
}

// ApplyConfig swaps in a reloaded configuration. Style and snap tolerance
// take effect immediately, including for the current map page; map defaults
// and the locator apply to the next map page.
func (s *State) ApplyConfig(cfg *config.Config) error {
	style, err := cfg.Style.EngineStyle(engine.DefaultStyle())
	if err != nil {
		return err
	}
	s.engine.SetStyle(style)
	s.engine.SetSnapTolerance(cfg.Interaction.SnapTolerance)

	s.mu.Lock()
	s.cfg = cfg
	surf := s.surface
	s.mu.Unlock()

	if surf != nil {
		surf.Invalidate()
	}
	s.logger.Info("configuration applied", "path", cfg.Path)
	s.Emit(EventConfigReloaded, cfg)
	return nil
}

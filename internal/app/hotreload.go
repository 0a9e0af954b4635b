package app

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"ottermap/internal/config"

	"github.com/fsnotify/fsnotify"
)

// ConfigReloader watches the config file and reloads it when it changes.
// The directory is watched rather than the file so that editors which
// replace the file on save are followed.
type ConfigReloader struct {
	current  *config.Config
	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	onReload func(*config.Config)
	onError  func(error)

	mu      sync.Mutex
	pending *time.Timer
	done    chan struct{}
	stopped sync.Once
}

// NewConfigReloader creates a reloader for the file cfg was read from. Each
// reload applies the env vars and flags cfg was loaded with.
func NewConfigReloader(cfg *config.Config, logger *slog.Logger) (*ConfigReloader, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ConfigReloader{
		current:  cfg,
		path:     abs,
		watcher:  watcher,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// OnReload sets the callback invoked with each successfully parsed config.
// The callback is called from a background goroutine.
func (r *ConfigReloader) OnReload(fn func(*config.Config)) {
	r.onReload = fn
}

// OnError sets the callback invoked when a changed file fails to load.
func (r *ConfigReloader) OnError(fn func(error)) {
	r.onError = fn
}

// Start begins watching in a background goroutine.
func (r *ConfigReloader) Start() error {
	if err := r.watcher.Add(filepath.Dir(r.path)); err != nil {
		return err
	}
	go r.eventLoop()
	r.logger.Info("watching config", "path", r.path)
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (r *ConfigReloader) Stop() error {
	var err error
	r.stopped.Do(func() {
		close(r.done)
		r.mu.Lock()
		if r.pending != nil {
			r.pending.Stop()
		}
		r.mu.Unlock()
		err = r.watcher.Close()
	})
	return err
}

// Path returns the absolute path of the watched file.
func (r *ConfigReloader) Path() string {
	return r.path
}

func (r *ConfigReloader) eventLoop() {
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			r.handleEvent(event)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (r *ConfigReloader) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != r.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	r.logger.Debug("config changed", "op", event.Op.String())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		r.pending.Stop()
	}
	r.pending = time.AfterFunc(r.debounce, r.reload)
}

func (r *ConfigReloader) reload() {
	select {
	case <-r.done:
		return
	default:
	}

	cfg, err := r.current.Reload()
	if err != nil {
		r.logger.Warn("config reload failed", "path", r.path, "error", err)
		if r.onError != nil {
			r.onError(err)
		}
		return
	}
	r.logger.Info("config reloaded", "path", r.path)
	if r.onReload != nil {
		r.onReload(cfg)
	}
}

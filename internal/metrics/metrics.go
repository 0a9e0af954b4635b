// Package metrics exposes Prometheus counters for the map editor.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the editor metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	ModeActivations *prometheus.CounterVec
	FeaturesAdded   prometheus.Counter
	FeaturesRemoved prometheus.Counter
	Clears          prometheus.Counter
	Features        prometheus.Gauge
}

// New registers the editor metrics against reg, defaulting to the global
// registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	activations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ottermap_mode_activations_total",
		Help: "Interaction mode activations, labeled by mode.",
	}, []string{"mode"})
	if err := register(reg, activations); err != nil {
		return nil, err
	}
	added := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ottermap_features_added_total",
		Help: "Polygons committed to the feature store.",
	})
	removed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ottermap_features_removed_total",
		Help: "Polygons removed from the feature store.",
	})
	clears := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ottermap_clears_total",
		Help: "Clear-all operations.",
	})
	features := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ottermap_features",
		Help: "Polygons currently in the feature store.",
	})
	for _, c := range []prometheus.Collector{added, removed, clears, features} {
		if err := register(reg, c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		gatherer:        gatherer,
		ModeActivations: activations,
		FeaturesAdded:   added,
		FeaturesRemoved: removed,
		Clears:          clears,
		Features:        features,
	}, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return fmt.Errorf("collector already registered: %w", err)
		}
		return err
	}
	return nil
}

// ModeActivated counts one activation of mode.
func (c *Collector) ModeActivated(mode string) {
	if c == nil {
		return
	}
	c.ModeActivations.WithLabelValues(mode).Inc()
}

// FeatureAdded counts one committed polygon.
func (c *Collector) FeatureAdded() {
	if c == nil {
		return
	}
	c.FeaturesAdded.Inc()
}

// FeatureRemoved counts one removed polygon.
func (c *Collector) FeatureRemoved() {
	if c == nil {
		return
	}
	c.FeaturesRemoved.Inc()
}

// Cleared counts one clear-all.
func (c *Collector) Cleared() {
	if c == nil {
		return
	}
	c.Clears.Inc()
}

// SetFeatureCount sets the stored polygon gauge.
func (c *Collector) SetFeatureCount(n int) {
	if c == nil {
		return
	}
	c.Features.Set(float64(n))
}

// Handler exposes a /metrics handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is canceled.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

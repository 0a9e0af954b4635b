package replay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"ottermap/internal/engine"
	"ottermap/internal/features"
	"ottermap/internal/interaction"
	"ottermap/internal/metrics"
	"ottermap/internal/surface"
	"ottermap/pkg/geometry"

	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var (
	// ErrExpectation is returned when a step's expected feature count is not
	// met.
	ErrExpectation = errors.New("expectation failed")
	// ErrSnapshotFormat is returned for snapshot formats without an encoder.
	ErrSnapshotFormat = errors.New("unsupported snapshot format")
)

// Options configures a Runner.
type Options struct {
	Engine  engine.Options
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// Runner executes scenarios against a fresh surface each time.
type Runner struct {
	engine  *engine.Software
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Engine.Style == (engine.Style{}) {
		opts.Engine.Style = engine.DefaultStyle()
	}
	opts.Engine.Logger = logger.With("component", "engine")
	return &Runner{
		engine:  engine.New(opts.Engine),
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario string
	// Features is the final store in longitude/latitude.
	Features *geojson.FeatureCollection
	Count    int
	// Snapshot is the final rendering of the surface.
	Snapshot *image.RGBA
}

// Run plays sc and returns the features left in the store. It stops at
// the first failing step.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	logger := r.logger.With("scenario", sc.Name)
	store := features.NewStore()
	surf := surface.New(r.engine, store, logger)
	defer surf.Destroy()
	ctrl := interaction.New(r.engine, surf, store, interaction.Options{
		Logger:  logger,
		Metrics: r.metrics,
	})

	if err := surf.Initialize(surface.LatLon{Lat: sc.Center.Lat, Lon: sc.Center.Lon}, sc.Zoom); err != nil {
		return nil, err
	}
	surf.Resize(sc.Size.Width, sc.Size.Height)

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.step(surf, ctrl, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Expect != nil && store.Len() != *step.Expect {
			return nil, fmt.Errorf("step %d: %w: %d features, want %d", i+1, ErrExpectation, store.Len(), *step.Expect)
		}
		logger.Debug("step done", "step", i+1, "mode", ctrl.Mode(), "features", store.Len())
	}

	res := &Result{
		Scenario: sc.Name,
		Features: store.FeatureCollectionIn(project.Mercator.ToWGS84),
		Count:    store.Len(),
		Snapshot: surf.Render(sc.Size.Width, sc.Size.Height),
	}
	logger.Info("scenario finished", "steps", len(sc.Steps), "features", res.Count)
	return res, nil
}

func (r *Runner) step(surf *surface.Surface, ctrl *interaction.Controller, step Step) error {
	dispatch := func(typ engine.PointerType, p Pixel) {
		surf.Dispatch(typ, geometry.Point2D{X: p[0], Y: p[1]})
	}

	switch {
	case step.Command != "":
		cmd, err := interaction.ParseCommand(step.Command)
		if err != nil {
			return err
		}
		return ctrl.Execute(cmd)
	case step.Deactivate:
		return ctrl.Deactivate()
	case step.Click != nil:
		dispatch(engine.PointerClick, *step.Click)
	case step.DoubleClick != nil:
		dispatch(engine.PointerDoubleClick, *step.DoubleClick)
	case step.Down != nil:
		dispatch(engine.PointerDown, *step.Down)
	case step.Move != nil:
		dispatch(engine.PointerMove, *step.Move)
	case step.Up != nil:
		dispatch(engine.PointerUp, *step.Up)
	case step.Drag != nil:
		dispatch(engine.PointerDown, step.Drag.From)
		dispatch(engine.PointerMove, step.Drag.To)
		dispatch(engine.PointerUp, step.Drag.To)
	case step.Escape:
		surf.AbortGestures()
	}
	return nil
}

// SnapshotEncoder returns the encoder for a snapshot format given as a name
// or file extension: png, bmp, tif or tiff.
func SnapshotEncoder(format string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png":
		return png.Encode, nil
	case "bmp":
		return bmp.Encode, nil
	case "tif", "tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrSnapshotFormat, format)
	}
}

// WriteSnapshot encodes img to w in the format named by the extension of
// path.
func WriteSnapshot(w io.Writer, path string, img image.Image) error {
	enc, err := SnapshotEncoder(filepath.Ext(path))
	if err != nil {
		return err
	}
	return enc(w, img)
}

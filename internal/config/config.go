// Package config loads settings from CLI flags, environment variables, and a
// TOML file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"ottermap/internal/engine"
	"ottermap/internal/session"
	"ottermap/pkg/colorutil"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "ottermap.toml"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all settings of the map editor.
type Config struct {
	Map         MapConfig         `toml:"map"`
	Interaction InteractionConfig `toml:"interaction"`
	Style       StyleConfig       `toml:"style"`
	Locator     LocatorConfig     `toml:"locator"`
	Logging     LoggingConfig     `toml:"logging"`
	Metrics     MetricsConfig     `toml:"metrics"`

	// Path is the file the config was read from (CLI and env only).
	Path string `toml:"-"`
	// Args are the command-line arguments Load was called with. Reload
	// applies them again so overrides outlive an edit of the file.
	Args []string `toml:"-"`
}

// MapConfig sets the initial view.
type MapConfig struct {
	CenterLat   float64 `toml:"center_lat"`
	CenterLon   float64 `toml:"center_lon"`
	Zoom        float64 `toml:"zoom"`         // used without a location
	LocatedZoom float64 `toml:"located_zoom"` // used when the user was located
}

// InteractionConfig holds pointer tolerances.
type InteractionConfig struct {
	SnapTolerance float64 `toml:"snap_tolerance"` // pixels
}

// StyleConfig holds annotation colors as #rrggbb or #rrggbbaa.
type StyleConfig struct {
	Stroke       string `toml:"stroke"`
	Fill         string `toml:"fill"`
	Sketch       string `toml:"sketch"`
	StrokeWidth  int    `toml:"stroke_width"`
	VertexRadius int    `toml:"vertex_radius"`
}

// LocatorConfig selects how the user's position is captured.
type LocatorConfig struct {
	Mode    string   `toml:"mode"` // "ip", "static", "none"
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
	Lat     float64  `toml:"lat"`
	Lon     float64  `toml:"lon"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text", "json"
}

// MetricsConfig holds the Prometheus listener. Empty disables it.
type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// Duration is a time.Duration that can be unmarshaled from TOML strings.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		Map: MapConfig{
			Zoom:        session.DefaultZoom,
			LocatedZoom: 12,
		},
		Interaction: InteractionConfig{
			SnapTolerance: 8,
		},
		Style: StyleConfig{
			Stroke:       "#ffcc33",
			Fill:         "#ffcc3380",
			Sketch:       "#1976d2",
			StrokeWidth:  2,
			VertexRadius: 4,
		},
		Locator: LocatorConfig{
			Mode:    "ip",
			URL:     session.DefaultIPLocatorURL,
			Timeout: Duration(5 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from CLI flags, environment variables, and the
// TOML file. Priority: CLI flags > env vars > TOML file > defaults. A
// missing config file is not an error.
func Load(args []string) (*Config, error) {
	return load(args, false)
}

// Reload re-reads the file c was loaded from and applies the same env vars
// and flags on top. Unlike Load, a missing file is an error.
func (c *Config) Reload() (*Config, error) {
	return load(c.Args, true)
}

func load(args []string, requireFile bool) (*Config, error) {
	fs := flag.NewFlagSet("ottermap", flag.ContinueOnError)
	path := fs.String("config", "", "Config file path")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "Log format: text, json")
	metricsListen := fs.String("metrics", "", "Prometheus listen address, e.g. :9090")
	locator := fs.String("locator", "", "Location source: ip, static, none")
	zoom := fs.Float64("zoom", 0, "Zoom used when no location is captured")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Args = slices.Clone(args)
	cfg.Path = DefaultPath
	if v := os.Getenv("OTTERMAP_CONFIG"); v != "" {
		cfg.Path = v
	}
	if *path != "" {
		cfg.Path = *path
	}
	if err := cfg.loadTOML(cfg.Path); err != nil && (requireFile || !os.IsNotExist(err)) {
		return nil, err
	}

	cfg.applyEnv()

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}
	if *metricsListen != "" {
		cfg.Metrics.Listen = *metricsListen
	}
	if *locator != "" {
		cfg.Locator.Mode = *locator
	}
	if *zoom != 0 {
		cfg.Map.Zoom = *zoom
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path over the defaults, without env or flags.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	cfg.Path = path
	cfg.Args = []string{"-config", path}
	if err := cfg.loadTOML(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadTOML(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OTTERMAP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("OTTERMAP_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("OTTERMAP_METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
	}
	if v := os.Getenv("OTTERMAP_LOCATOR"); v != "" {
		c.Locator.Mode = v
	}
	if v := os.Getenv("OTTERMAP_LOCATOR_URL"); v != "" {
		c.Locator.URL = v
	}
	if v := os.Getenv("OTTERMAP_LOCATOR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Locator.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("OTTERMAP_SNAP_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Interaction.SnapTolerance = f
		}
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Map.Zoom < engine.MinZoom || c.Map.Zoom > engine.MaxZoom {
		errs = append(errs, fmt.Errorf("map.zoom %v out of range", c.Map.Zoom))
	}
	if c.Map.LocatedZoom < engine.MinZoom || c.Map.LocatedZoom > engine.MaxZoom {
		errs = append(errs, fmt.Errorf("map.located_zoom %v out of range", c.Map.LocatedZoom))
	}
	if c.Interaction.SnapTolerance <= 0 {
		errs = append(errs, fmt.Errorf("interaction.snap_tolerance must be positive"))
	}
	if _, err := c.Style.EngineStyle(engine.DefaultStyle()); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Locator.Mode) {
	case "ip", "static", "none":
	default:
		errs = append(errs, fmt.Errorf("locator.mode %q unknown", c.Locator.Mode))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q unknown", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q unknown", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// MapDefaults returns the initial view settings.
func (c *Config) MapDefaults() session.MapDefaults {
	return session.MapDefaults{
		Center:      session.Location{Lat: c.Map.CenterLat, Lon: c.Map.CenterLon},
		Zoom:        c.Map.Zoom,
		LocatedZoom: c.Map.LocatedZoom,
	}
}

// NewLocator builds the configured locator.
func (c *Config) NewLocator() session.Locator {
	switch strings.ToLower(c.Locator.Mode) {
	case "static":
		return session.StaticLocator{Location: session.Location{Lat: c.Locator.Lat, Lon: c.Locator.Lon}}
	case "none":
		return session.NoLocator{}
	default:
		return session.IPLocator{URL: c.Locator.URL}
	}
}

// EngineOptions returns the rendering engine options.
func (c *Config) EngineOptions() (engine.Options, error) {
	style, err := c.Style.EngineStyle(engine.DefaultStyle())
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{Style: style, SnapTolerance: c.Interaction.SnapTolerance}, nil
}

// EngineStyle overlays the configured colors and sizes on base. Empty colors
// and non-positive sizes keep the base value.
func (s StyleConfig) EngineStyle(base engine.Style) (engine.Style, error) {
	for _, f := range []struct {
		name  string
		value string
		dst   *color.NRGBA
	}{
		{"style.stroke", s.Stroke, &base.Stroke},
		{"style.fill", s.Fill, &base.Fill},
		{"style.sketch", s.Sketch, &base.Sketch},
	} {
		if f.value == "" {
			continue
		}
		c, err := colorutil.ParseHex(f.value)
		if err != nil {
			return base, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = c
	}
	if s.StrokeWidth > 0 {
		base.StrokeWidth = s.StrokeWidth
	}
	if s.VertexRadius > 0 {
		base.VertexRadius = s.VertexRadius
	}
	return base, nil
}

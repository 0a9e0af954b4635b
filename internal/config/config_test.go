package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ottermap/internal/engine"
	"ottermap/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ottermap.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.toml")})
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Map.Zoom)
	assert.Equal(t, "ip", cfg.Locator.Mode)
	assert.Equal(t, 5*time.Second, cfg.Locator.Timeout.Duration())
	assert.Empty(t, cfg.Metrics.Listen)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultStyle(), opts.Style)
	assert.Equal(t, 8.0, opts.SnapTolerance)
}

func TestPriority(t *testing.T) {
	path := writeConfig(t, `
[map]
zoom = 4
located_zoom = 15

[locator]
mode = "static"
lat = 10.5
lon = 20.25
timeout = "2s"

[logging]
level = "warn"
format = "json"
`)
	t.Setenv("OTTERMAP_LOG_LEVEL", "debug")
	t.Setenv("OTTERMAP_METRICS_LISTEN", ":9100")

	cfg, err := Load([]string{"-config", path, "-metrics", ":9200"})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, 4.0, cfg.Map.Zoom, "file overrides default")
	assert.Equal(t, "debug", cfg.Logging.Level, "env overrides file")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9200", cfg.Metrics.Listen, "flag overrides env")
	assert.Equal(t, 2*time.Second, cfg.Locator.Timeout.Duration())

	loc, ok := cfg.NewLocator().(session.StaticLocator)
	require.True(t, ok)
	assert.Equal(t, 10.5, loc.Location.Lat)

	d := cfg.MapDefaults()
	assert.Equal(t, 15.0, d.LocatedZoom)
}

func TestConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "[interaction]\nsnap_tolerance = 12\n")
	t.Setenv("OTTERMAP_CONFIG", path)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.Interaction.SnapTolerance)
}

func TestReloadKeepsOverrides(t *testing.T) {
	path := writeConfig(t, "[map]\nzoom = 4\n[locator]\nmode = \"ip\"\n")
	t.Setenv("OTTERMAP_LOCATOR", "none")
	cfg, err := Load([]string{"-config", path, "-log-level", "debug"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[map]\nzoom = 7\n[logging]\nlevel = \"warn\"\n"), 0o644))
	next, err := cfg.Reload()
	require.NoError(t, err)
	assert.Equal(t, 7.0, next.Map.Zoom, "file edits are picked up")
	assert.Equal(t, "none", next.Locator.Mode, "env still wins over the file")
	assert.Equal(t, "debug", next.Logging.Level, "flags still win over the file")
	assert.Equal(t, cfg.Args, next.Args)

	require.NoError(t, os.Remove(path))
	_, err = cfg.Reload()
	assert.Error(t, err, "a vanished file does not fall back to defaults")
}

func TestValidate(t *testing.T) {
	tests := map[string]string{
		"zoom":      "[map]\nzoom = 40\n",
		"tolerance": "[interaction]\nsnap_tolerance = -1\n",
		"color":     "[style]\nfill = \"gold\"\n",
		"locator":   "[locator]\nmode = \"gps\"\n",
		"level":     "[logging]\nlevel = \"loud\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestMalformedFile(t *testing.T) {
	_, err := Load([]string{"-config", writeConfig(t, "[map\n")})
	assert.Error(t, err)
}

func TestStyle(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "[style]\nstroke = \"#00ff00\"\nfill = \"#0000ff40\"\nstroke_width = 5\n"))
	require.NoError(t, err)
	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{G: 0xff, A: 0xff}, opts.Style.Stroke)
	assert.Equal(t, color.NRGBA{B: 0xff, A: 0x40}, opts.Style.Fill)
	assert.Equal(t, 5, opts.Style.StrokeWidth)
	assert.Equal(t, engine.DefaultStyle().VertexRadius, opts.Style.VertexRadius)
}

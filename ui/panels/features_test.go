package panels

import (
	"encoding/json"
	"testing"

	"ottermap/internal/features"
	"ottermap/internal/surface"
	"ottermap/pkg/geometry"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addSquare(t *testing.T, store *features.Store, lat, lon, size float64) *features.Polygon {
	t.Helper()
	ring := []geometry.Point2D{
		surface.ToMap(surface.LatLon{Lat: lat, Lon: lon}),
		surface.ToMap(surface.LatLon{Lat: lat, Lon: lon + size}),
		surface.ToMap(surface.LatLon{Lat: lat + size, Lon: lon + size}),
		surface.ToMap(surface.LatLon{Lat: lat + size, Lon: lon}),
	}
	p, err := features.NewPolygon(ring)
	require.NoError(t, err)
	require.NoError(t, store.Add(p))
	return p
}

func TestFeaturePanelRefresh(t *testing.T) {
	test.NewApp()
	store := features.NewStore()
	panel := NewFeaturePanel(store, nil)

	assert.Equal(t, 0, panel.list.Length())
	assert.Equal(t, "0 drawn", panel.count.Text)
	assert.True(t, panel.copyBtn.Disabled())

	p := addSquare(t, store, 0, 0, 0.01)
	panel.Refresh()
	assert.Equal(t, 1, panel.list.Length())
	assert.Equal(t, "1 drawn", panel.count.Text)
	assert.False(t, panel.copyBtn.Disabled())

	label := widget.NewLabel("")
	panel.list.UpdateItem(0, label)
	assert.Contains(t, label.Text, ShortID(p.ID))
	assert.Contains(t, label.Text, "4 vertices")
	assert.Contains(t, label.Text, "km²")

	store.Clear()
	panel.Refresh()
	assert.Equal(t, 0, panel.list.Length())
}

func TestFeaturePanelCopy(t *testing.T) {
	test.NewApp()
	store := features.NewStore()
	var copied string
	panel := NewFeaturePanel(store, func(s string) { copied = s })
	addSquare(t, store, 10, 20, 1)
	panel.Refresh()

	test.Tap(panel.copyBtn)
	require.NotEmpty(t, copied)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates [][][2]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(copied), &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 1)
	first := decoded.Features[0].Geometry.Coordinates[0][0]
	assert.InDelta(t, 20, first[0], 1e-9)
	assert.InDelta(t, 10, first[1], 1e-9)
}

func TestFormatArea(t *testing.T) {
	assert.Equal(t, "250 m²", FormatArea(250))
	assert.Equal(t, "1.50 ha", FormatArea(15000))
	assert.Equal(t, "2.00 km²", FormatArea(2e6))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcdefgh", ShortID("abcdefgh-1234"))
	assert.Equal(t, "abc", ShortID("abc"))
}

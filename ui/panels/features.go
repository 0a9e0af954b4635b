// Package panels provides the side panel of the map page.
package panels

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"ottermap/internal/features"
	"ottermap/internal/surface"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/paulmach/orb/project"
)

// FeaturePanel lists the polygons of a store and exports them as GeoJSON.
type FeaturePanel struct {
	store *features.Store

	mu    sync.Mutex
	items []*features.Polygon

	list    *widget.List
	count   *widget.Label
	copyBtn *widget.Button
	content fyne.CanvasObject

	onCopy func(geojson string)
}

// NewFeaturePanel creates a panel for store. onCopy receives the exported
// collection when the copy button is pressed.
func NewFeaturePanel(store *features.Store, onCopy func(geojson string)) *FeaturePanel {
	p := &FeaturePanel{store: store, onCopy: onCopy}

	p.count = widget.NewLabel("")
	p.list = widget.NewList(
		p.length,
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(p.describe(id))
		},
	)
	p.copyBtn = widget.NewButtonWithIcon("Copy GeoJSON", theme.ContentCopyIcon(), p.copyGeoJSON)

	p.content = container.NewBorder(
		container.NewVBox(widget.NewLabelWithStyle("Polygons", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), p.count),
		p.copyBtn,
		nil, nil,
		p.list,
	)
	p.Refresh()
	return p
}

// Container returns the panel.
func (p *FeaturePanel) Container() fyne.CanvasObject {
	return p.content
}

// Refresh reloads the list from the store.
func (p *FeaturePanel) Refresh() {
	items := slices.Collect(p.store.All())
	p.mu.Lock()
	p.items = items
	p.mu.Unlock()

	p.count.SetText(fmt.Sprintf("%d drawn", len(items)))
	if len(items) == 0 {
		p.copyBtn.Disable()
	} else {
		p.copyBtn.Enable()
	}
	p.list.Refresh()
}

func (p *FeaturePanel) length() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *FeaturePanel) describe(id widget.ListItemID) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.items) {
		return ""
	}
	poly := p.items[id]
	return fmt.Sprintf("%s  %d vertices  %s", ShortID(poly.ID), poly.VertexCount(), FormatArea(surface.GroundArea(poly.Ring)))
}

// GeoJSON returns the store as a longitude/latitude feature collection.
func (p *FeaturePanel) GeoJSON() (string, error) {
	data, err := json.Marshal(p.store.FeatureCollectionIn(project.Mercator.ToWGS84))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *FeaturePanel) copyGeoJSON() {
	data, err := p.GeoJSON()
	if err != nil || p.onCopy == nil {
		return
	}
	p.onCopy(data)
}

// ShortID returns the first eight characters of a feature ID.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FormatArea formats square metres, switching to hectares and square
// kilometres for larger areas.
func FormatArea(m2 float64) string {
	switch {
	case m2 >= 1e6:
		return fmt.Sprintf("%.2f km²", m2/1e6)
	case m2 >= 1e4:
		return fmt.Sprintf("%.2f ha", m2/1e4)
	default:
		return fmt.Sprintf("%.0f m²", m2)
	}
}

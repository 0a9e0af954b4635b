package features

import (
	"ottermap/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// FeatureCollection returns the current polygons as a GeoJSON feature
// collection. Coordinates are emitted in map units, unprojected.
func (s *Store) FeatureCollection() *geojson.FeatureCollection {
	return s.FeatureCollectionIn(nil)
}

// FeatureCollectionIn is FeatureCollection with every coordinate passed
// through proj, e.g. project.Mercator.ToWGS84 for longitude/latitude output.
// The area property stays in map units.
func (s *Store) FeatureCollectionIn(proj orb.Projection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for p := range s.All() {
		poly := orb.Polygon{geometry.ToRing(p.Ring)}
		if proj != nil {
			poly = project.Polygon(poly, proj)
		}
		f := geojson.NewFeature(poly)
		f.ID = p.ID
		f.Properties["vertices"] = p.VertexCount()
		f.Properties["area"] = p.Area()
		fc.Append(f)
	}
	return fc
}

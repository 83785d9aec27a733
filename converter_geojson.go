package openlr

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

func coordinatesToGeoJSON(pts []Coordinate) [][]float64 {
	pts2d := make([][]float64, len(pts))
	for i := range pts {
		pts2d[i] = []float64{pts[i].Lon, pts[i].Lat}
	}
	return pts2d
}

func ringToGeoJSON(pts []Coordinate) [][][]float64 {
	ring := coordinatesToGeoJSON(pts)
	if len(pts) > 0 && pts[0] != pts[len(pts)-1] {
		ring = append(ring, []float64{pts[0].Lon, pts[0].Lat})
	}
	return [][][]float64{ring}
}

func boxRing(lowerLeft, upperRight Coordinate) []Coordinate {
	return []Coordinate{
		lowerLeft,
		{Lat: lowerLeft.Lat, Lon: upperRight.Lon},
		upperRight,
		{Lat: upperRight.Lat, Lon: lowerLeft.Lon},
	}
}

// edgeFeatures returns LineString feature for every edge of the line. OSM tags become properties
func edgeFeatures(line *ReferencedLine) []*geojson.Feature {
	features := make([]*geojson.Feature, 0, len(line.Edges))
	for i, edge := range line.Edges {
		if i >= len(line.Shapes) {
			break
		}
		feature := geojson.NewLineStringFeature(coordinatesToGeoJSON(line.Shapes[i]))
		for _, tag := range edge.Tags {
			feature.SetProperty(tag.Key, tag.Value)
		}
		feature.SetProperty("kind", "edge")
		feature.SetProperty("index", i)
		feature.SetProperty("edge_id", int64(edge.ID))
		feature.SetProperty("forward", edge.Forward)
		feature.SetProperty("from_vertex", int64(line.Vertices[i]))
		feature.SetProperty("to_vertex", int64(line.Vertices[i+1]))
		features = append(features, feature)
	}
	return features
}

// ToFeatureCollection converts referenced location to GeoJSON
func ToFeatureCollection(loc ReferencedLocation) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	var feature *geojson.Feature
	switch l := loc.(type) {
	case *ReferencedLine:
		for _, edgeFeature := range edgeFeatures(l) {
			fc.AddFeature(edgeFeature)
		}
		feature = geojson.NewLineStringFeature(coordinatesToGeoJSON(l.LocationCoordinates()))
		feature.SetProperty("positive_offset", l.PositiveOffset)
		feature.SetProperty("negative_offset", l.NegativeOffset)
	case *ReferencedPointAlongLine:
		if l.Route != nil {
			for _, edgeFeature := range edgeFeatures(l.Route) {
				fc.AddFeature(edgeFeature)
			}
		}
		feature = geojson.NewPointFeature([]float64{l.Coordinate.Lon, l.Coordinate.Lat})
		feature.SetProperty("orientation", l.Orientation.String())
		feature.SetProperty("side_of_road", l.SideOfRoad.String())
	case *ReferencedGeoCoordinate:
		feature = geojson.NewPointFeature([]float64{l.Coordinate.Lon, l.Coordinate.Lat})
	case *ReferencedCircle:
		feature = geojson.NewPointFeature([]float64{l.Center.Lon, l.Center.Lat})
		feature.SetProperty("radius", l.Radius)
	case *ReferencedRectangle:
		feature = geojson.NewPolygonFeature(ringToGeoJSON(boxRing(l.LowerLeft, l.UpperRight)))
	case *ReferencedGrid:
		feature = geojson.NewPolygonFeature(ringToGeoJSON(boxRing(l.LowerLeft, l.UpperRight)))
		feature.SetProperty("columns", l.Columns)
		feature.SetProperty("rows", l.Rows)
	case *ReferencedPolygon:
		feature = geojson.NewPolygonFeature(ringToGeoJSON(l.Corners))
	default:
		return nil, errors.Wrapf(ErrUnrecognizedLocationType, "referenced location %T", loc)
	}
	feature.SetProperty("kind", "location")
	feature.SetProperty("type", loc.Type().String())
	fc.AddFeature(feature)
	return fc, nil
}

package openlr

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

func ringOf(pts []Coordinate) orb.Ring {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, pt := range pts {
		ring = append(ring, pt.Point())
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// ToGeometry converts referenced location to orb geometry. Lines are trimmed by their offsets, circles become their centers
func ToGeometry(loc ReferencedLocation) (orb.Geometry, error) {
	switch l := loc.(type) {
	case *ReferencedLine:
		return lineString(l.LocationCoordinates()), nil
	case *ReferencedPointAlongLine:
		return l.Coordinate.Point(), nil
	case *ReferencedGeoCoordinate:
		return l.Coordinate.Point(), nil
	case *ReferencedCircle:
		return l.Center.Point(), nil
	case *ReferencedRectangle:
		return orb.Polygon{ringOf(boxRing(l.LowerLeft, l.UpperRight))}, nil
	case *ReferencedGrid:
		return orb.Polygon{ringOf(boxRing(l.LowerLeft, l.UpperRight))}, nil
	case *ReferencedPolygon:
		return orb.Polygon{ringOf(l.Corners)}, nil
	}
	return nil, errors.Wrapf(ErrUnrecognizedLocationType, "referenced location %T", loc)
}

// ToWKT returns WKT representation of referenced location
func ToWKT(loc ReferencedLocation) (string, error) {
	geom, err := ToGeometry(loc)
	if err != nil {
		return "", err
	}
	return wkt.MarshalString(geom), nil
}

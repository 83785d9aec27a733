package openlr

import (
	"context"

	"github.com/pkg/errors"
)

// resolveArea wraps area locations. They are not bound to the graph so nothing is searched
func (decoder *Decoder) resolveArea(ctx context.Context, loc Location) (ReferencedLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch l := loc.(type) {
	case *GeoCoordinateLocation:
		return &ReferencedGeoCoordinate{Coordinate: l.Coordinate}, nil
	case *CircleLocation:
		return &ReferencedCircle{Center: l.Center, Radius: l.Radius}, nil
	case *RectangleLocation:
		return &ReferencedRectangle{LowerLeft: l.LowerLeft, UpperRight: l.UpperRight}, nil
	case *GridLocation:
		return &ReferencedGrid{LowerLeft: l.LowerLeft, UpperRight: l.UpperRight, Columns: l.Columns, Rows: l.Rows}, nil
	case *PolygonLocation:
		corners := make([]Coordinate, len(l.Corners))
		copy(corners, l.Corners)
		return &ReferencedPolygon{Corners: corners}, nil
	}
	return nil, errors.Wrapf(ErrInvalidArgument, "area location expected, got %T", loc)
}
